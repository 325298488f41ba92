// Package sim provides the discrete-event engine for a single-stage queueing
// network: periodic request sources, a bounded buffer, and a pool of devices.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - request.go: the Request value that moves between buffer and devices
//   - event.go: Event kinds and their total order (time → kind → id)
//   - simulator.go: the event loop, arrival and release handling
//
// # Key Interfaces
//
// Every decision that is not calendar management is delegated:
//   - BufferPolicy: admit/evict waiting requests and choose the next one to serve
//   - DevicePicker: choose a free device
//   - ServiceLaw: turn a device coefficient into a service duration
//
// Implementations are created by name through NewPolicies, or injected
// directly with NewSimulatorWithPolicies.
//
// Sub-packages:
//   - sim/trace/: decision trace recording
//   - sim/report/: derived report fields, tables and Prometheus export
//   - sim/tune/: device-count tuning against a target rejection probability
package sim
