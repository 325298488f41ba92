// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queue-sim/sim/trace"
)

// Simulator is the core object that holds simulation time, the event
// calendar, the per-source and per-device tables, and the event loop.
//
// A Simulator is not safe for concurrent use; independent Simulators share
// no mutable state and may run on separate goroutines.
type Simulator struct {
	clock    int64
	target   int64
	received int64
	rejected int64

	calendar *Calendar
	sources  []SourceStatistics
	devices  []DeviceStatistics

	periods      []int64
	coefficients []int64
	law          string

	policies Policies
	rng      *PartitionedRNG

	// Trace is nil unless decision tracing is enabled.
	Trace *trace.SimulationTrace
}

// NewSimulator validates cfg, builds the policies it names and seeds the
// first arrival of every source.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	policies, err := NewPolicies(cfg, rng)
	if err != nil {
		return nil, err
	}
	return newSimulator(cfg, policies, rng), nil
}

// NewSimulatorWithPolicies validates cfg and uses the given strategies
// instead of the ones cfg names.
func NewSimulatorWithPolicies(cfg Config, policies Policies) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if policies.Buffer == nil || policies.Devices == nil || policies.Service == nil {
		return nil, fmt.Errorf("%w: buffer, device and service policies are all required", ErrInvalidConfig)
	}
	return newSimulator(cfg, policies, NewPartitionedRNG(NewSimulationKey(cfg.Seed))), nil
}

func newSimulator(cfg Config, policies Policies, rng *PartitionedRNG) *Simulator {
	cfg = cfg.clone()
	law := cfg.Law
	if law == "" {
		law = LawDeterministic
	}
	s := &Simulator{
		target:       cfg.TargetRequests,
		calendar:     NewCalendar(),
		sources:      make([]SourceStatistics, len(cfg.SourcePeriods)),
		devices:      make([]DeviceStatistics, len(cfg.DeviceCoefficients)),
		periods:      cfg.SourcePeriods,
		coefficients: cfg.DeviceCoefficients,
		law:          law,
		policies:     policies,
		rng:          rng,
		Trace:        trace.NewSimulationTrace(trace.TraceLevel(cfg.Trace)),
	}
	for i := range s.devices {
		s.devices[i] = newDeviceStatistics()
	}
	s.seedArrivals()
	return s
}

// seedArrivals plans the first request of every source at its period.
func (sim *Simulator) seedArrivals() {
	for i, period := range sim.periods {
		sim.schedule(NewRequestEvent(period, i))
	}
}

// schedule pushes an event onto the calendar and mirrors its time into the
// owning source or device row.
func (sim *Simulator) schedule(ev Event) {
	switch ev.Kind {
	case EventNewRequest:
		sim.sources[ev.ID].NextEventTime = ev.Time
	case EventDeviceRelease:
		sim.devices[ev.ID].NextEventTime = ev.Time
	case EventEndOfSimulation:
		panic("schedule: EndOfSimulation is never placed on the calendar")
	}
	sim.calendar.Schedule(ev)
}

// Step dispatches the next event and returns it. Once the calendar is empty
// it returns a synthetic EndOfSimulation event and changes nothing.
func (sim *Simulator) Step() Event {
	if sim.IsCompleted() {
		return EndOfSimulationEvent(sim.clock)
	}
	return sim.step()
}

// RunToCompletion dispatches events until the calendar is empty.
func (sim *Simulator) RunToCompletion() {
	for !sim.IsCompleted() {
		sim.step()
	}
	logrus.Infof("[tick %07d] Simulation ended: received=%d rejected=%d", sim.clock, sim.received, sim.rejected)
}

func (sim *Simulator) step() Event {
	ev, _ := sim.calendar.PopNext()
	sim.clock = ev.Time
	logrus.Debugf("[tick %07d] Executing %s(%d)", sim.clock, ev.Kind, ev.ID)
	switch ev.Kind {
	case EventNewRequest:
		sim.handleNewRequest(ev.ID)
	case EventDeviceRelease:
		sim.handleDeviceRelease(ev.ID)
	case EventEndOfSimulation:
		panic("step: EndOfSimulation popped from the calendar")
	default:
		panic(fmt.Sprintf("step: unhandled event kind %d", ev.Kind))
	}
	return ev
}

func (sim *Simulator) handleNewRequest(sourceID int) {
	source := &sim.sources[sourceID]
	req := Request{SourceID: sourceID, Sequence: source.Generated, GenerationTime: sim.clock}
	source.Generated++
	sim.received++

	if !sim.occupyDevice(req) {
		if rejected, ok := sim.policies.Buffer.Admit(req); ok {
			sim.reject(rejected, rejected != req)
		}
	}

	if sim.received >= sim.target {
		purged := sim.calendar.Purge(EventNewRequest)
		for i := range sim.sources {
			sim.sources[i].NextEventTime = Never
		}
		logrus.Infof("[tick %07d] Target of %d requests reached; %d pending arrivals dropped", sim.clock, sim.target, purged)
		return
	}
	sim.schedule(NewRequestEvent(sim.clock+sim.periods[sourceID], sourceID))
}

// reject accounts for a request leaving the system unserved.
func (sim *Simulator) reject(req Request, evicted bool) {
	wait := req.WaitTime(sim.clock)
	source := &sim.sources[req.SourceID]
	source.Wait.AddTime(wait)
	source.Rejected++
	sim.rejected++
	logrus.Debugf("[tick %07d] Rejected %s (evicted=%t, waited %d)", sim.clock, req, evicted, wait)
	if sim.Trace != nil {
		sim.Trace.RecordRejection(trace.RejectionRecord{
			Clock:    sim.clock,
			SourceID: req.SourceID,
			Sequence: req.Sequence,
			Wait:     wait,
			Evicted:  evicted,
		})
	}
}

func (sim *Simulator) handleDeviceRelease(deviceID int) {
	device := &sim.devices[deviceID]
	device.CurrentRequest = nil
	device.NextEventTime = Never

	req, ok := sim.policies.Buffer.SelectNext()
	if !ok {
		return
	}
	sim.sources[req.SourceID].Wait.AddTime(req.WaitTime(sim.clock))
	if !sim.occupyDevice(req) {
		panic(fmt.Sprintf("handleDeviceRelease: no free device for %s although device %d was released", req, deviceID))
	}
}

// occupyDevice starts service of req on a device chosen by the device policy.
// Returns false when every device is busy.
func (sim *Simulator) occupyDevice(req Request) bool {
	deviceID, ok := sim.policies.Devices.PickFree(sim.devices)
	if !ok {
		return false
	}
	device := &sim.devices[deviceID]
	if device.Busy() {
		panic(fmt.Sprintf("occupyDevice: device policy picked busy device %d", deviceID))
	}

	duration := sim.policies.Service.Duration(sim.coefficients[deviceID])
	sim.sources[req.SourceID].Service.AddTime(duration)
	r := req
	device.CurrentRequest = &r
	device.TimeInUsage += duration
	sim.schedule(DeviceReleaseEvent(sim.clock+duration, deviceID))

	if sim.Trace != nil {
		sim.Trace.RecordService(trace.ServiceRecord{
			Clock:    sim.clock,
			SourceID: req.SourceID,
			Sequence: req.Sequence,
			DeviceID: deviceID,
			Duration: duration,
			Wait:     req.WaitTime(sim.clock),
		})
	}
	return true
}

// Reset clears the calendar, statistics, counters and policy state and
// re-seeds one arrival per source. The target is kept.
// The service RNG keeps its stream, so stochastic reruns draw fresh samples.
func (sim *Simulator) Reset() {
	sim.calendar.Clear()
	sim.clock = 0
	sim.received = 0
	sim.rejected = 0
	for i := range sim.sources {
		sim.sources[i] = SourceStatistics{}
	}
	for i := range sim.devices {
		sim.devices[i] = newDeviceStatistics()
	}
	sim.policies.Buffer.Reset()
	sim.policies.Devices.Reset()
	if sim.Trace != nil {
		sim.Trace.Clear()
	}
	sim.seedArrivals()
	logrus.Infof("Simulator reset: target=%d sources=%d devices=%d", sim.target, len(sim.sources), len(sim.devices))
}

// ResetWithTarget resets the simulator and replaces the target request count.
func (sim *Simulator) ResetWithTarget(target int64) error {
	if target <= 0 {
		return fmt.Errorf("%w: target requests must be positive, got %d", ErrInvalidConfig, target)
	}
	sim.target = target
	sim.Reset()
	return nil
}

// AddDevice appends an idle device with no prior usage.
func (sim *Simulator) AddDevice(coefficient int64) error {
	if coefficient <= 0 {
		return fmt.Errorf("%w: device coefficient must be positive, got %d", ErrInvalidConfig, coefficient)
	}
	sim.coefficients = append(sim.coefficients, coefficient)
	sim.devices = append(sim.devices, newDeviceStatistics())
	return nil
}

// IsCompleted reports whether the calendar is empty.
func (sim *Simulator) IsCompleted() bool {
	return sim.calendar.Empty()
}

// Clock returns the current simulation time.
func (sim *Simulator) Clock() int64 { return sim.clock }

// Received returns the number of requests generated so far.
func (sim *Simulator) Received() int64 { return sim.received }

// Rejected returns the number of requests rejected so far.
func (sim *Simulator) Rejected() int64 { return sim.rejected }

// Target returns the number of requests after which arrivals stop.
func (sim *Simulator) Target() int64 { return sim.target }

// BufferCapacity returns the buffer's configured capacity.
func (sim *Simulator) BufferCapacity() int { return sim.policies.Buffer.Capacity() }

// Law returns the name of the service law in use.
func (sim *Simulator) Law() string { return sim.law }

// Key returns the SimulationKey the simulator was seeded with.
func (sim *Simulator) Key() SimulationKey { return sim.rng.Key() }

// Sources returns a copy of the per-source table.
func (sim *Simulator) Sources() []SourceStatistics {
	out := make([]SourceStatistics, len(sim.sources))
	copy(out, sim.sources)
	return out
}

// Devices returns a deep copy of the per-device table.
func (sim *Simulator) Devices() []DeviceStatistics {
	out := make([]DeviceStatistics, len(sim.devices))
	for i, d := range sim.devices {
		out[i] = d.clone()
	}
	return out
}

// Buffered returns the waiting requests sorted by (GenerationTime, SourceID).
func (sim *Simulator) Buffered() []Request {
	return sim.policies.Buffer.Buffered()
}

// SourcePeriods returns a copy of the per-source periods.
func (sim *Simulator) SourcePeriods() []int64 {
	return append([]int64(nil), sim.periods...)
}

// DeviceCoefficients returns a copy of the per-device coefficients.
func (sim *Simulator) DeviceCoefficients() []int64 {
	return append([]int64(nil), sim.coefficients...)
}

// PendingEvents returns a copy of the calendar in dispatch order.
func (sim *Simulator) PendingEvents() []Event {
	return sim.calendar.Pending()
}

// RejectionProbability is Rejected / Received.
func (sim *Simulator) RejectionProbability() (float64, error) {
	if sim.received == 0 {
		return 0, ErrNoSamples
	}
	return float64(sim.rejected) / float64(sim.received), nil
}
