package sim

import "time"

// Framework is the observable contract of the machine/framework runtime.
// It is a separate component: the simulator only ever consumes
// events through it and installs the actions it returns; it never inspects
// machine internals.
//
// Concrete implementations live outside this package (see sim/machines for
// a handful of reference defenses used in tests and by the CLI).
type Framework interface {
	// TriggerEvents feeds events to the framework at currentTime and
	// returns the actions the framework's machines produced in response.
	TriggerEvents(events []TriggerEvent, currentTime time.Duration) []TriggerAction
}
