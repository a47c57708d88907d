package sim

import (
	"math/rand"
	"time"
)

// Constant is a fixed-value Sampler stub for tests across this package,
// reproducing a constant one-way network delay or integration delay
// without pulling in sim/distributions (which would import this package).
type Constant time.Duration

func (d Constant) Sample(*rand.Rand) time.Duration { return time.Duration(d) }
