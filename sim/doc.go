// Package sim provides the core discrete-event engine of the traffic
// simulator.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - event.go: the SimEvent/TriggerEvent data model and ScheduledAction
//   - queue.go: SimQueue, the multi-bucket priority queue events live in
//   - peek.go: the four peekers pick_next merges to find the next event
//   - network.go: NetworkStack, the queued/sent/recv transform and padding
//     replacement rule
//   - simulator.go: the event loop (Run), pick_next, and trigger_update
//
// # Architecture
//
// The sim package defines the simulation kernel and the Framework contract
// it drives; concrete pieces live in sub-packages:
//   - sim/trace: text trace parsing and formatting
//   - sim/distributions: the sample() contract over named distributions
//   - sim/machines: reference Framework implementations for a handful of
//     common traffic-shaping scenarios
//
// The framework/machine runtime itself is an external collaborator: sim
// only depends on the Framework interface in framework.go.
package sim
