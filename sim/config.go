package sim

// SimulatorArgs groups the parameters a single simulation run is configured
// with. MaxTraceLength == 0 or MaxSimIterations == 0 means unlimited.
type SimulatorArgs struct {
	// Network is the one-way network delay sampler.
	Network Sampler

	MaxTraceLength   int
	MaxSimIterations int64

	OnlyClientEvents    bool
	OnlyNetworkActivity bool

	// MaxPaddingFrac{Client,Server} and MaxBlockingFrac{Client,Server} are
	// the padding and blocking budget fractions for the machines attached
	// to each endpoint. Nothing in this package reads them: NewSimulator
	// takes each endpoint's Framework already constructed and does not pass
	// these values to it.
	MaxPaddingFracClient  float64
	MaxPaddingFracServer  float64
	MaxBlockingFracClient float64
	MaxBlockingFracServer float64

	ClientIntegration *Integration
	ServerIntegration *Integration
}
