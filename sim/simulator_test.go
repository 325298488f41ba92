package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg)
	require.NoError(t, err)
	return s
}

// stepAll steps until completion and returns every dispatched event.
func stepAll(t *testing.T, s *Simulator) []Event {
	t.Helper()
	var events []Event
	for !s.IsCompleted() {
		events = append(events, s.Step())
		require.Less(t, len(events), 1_000_000, "simulation did not terminate")
	}
	return events
}

func TestSimulator_SingleSourceSingleDevice_Deterministic(t *testing.T) {
	// GIVEN 1 source (period 10), 1 device (coefficient 5), buffer 1, target 3
	s := mustSimulator(t, Config{
		TargetRequests:     3,
		BufferCapacity:     1,
		SourcePeriods:      []int64{10},
		DeviceCoefficients: []int64{5},
		Law:                LawDeterministic,
	})

	// WHEN stepping to completion
	events := stepAll(t, s)

	// THEN arrivals happen at 10, 20, 30, each served immediately
	assert.Equal(t, []Event{
		NewRequestEvent(10, 0),
		DeviceReleaseEvent(15, 0),
		NewRequestEvent(20, 0),
		DeviceReleaseEvent(25, 0),
		NewRequestEvent(30, 0),
		DeviceReleaseEvent(35, 0),
	}, events)
	assert.Equal(t, int64(35), s.Clock())
	assert.Equal(t, int64(3), s.Received())
	assert.Equal(t, int64(0), s.Rejected())

	src := s.Sources()[0]
	assert.Equal(t, int64(3), src.Generated)
	assert.Equal(t, ElementStatistics{}, src.Wait)
	assert.Equal(t, ElementStatistics{TotalTime: 15, TotalTimeSquared: 75}, src.Service)
	assert.Equal(t, Never, src.NextEventTime)

	dev := s.Devices()[0]
	assert.Equal(t, int64(15), dev.TimeInUsage)
	assert.Equal(t, Never, dev.NextEventTime)
	assert.Nil(t, dev.CurrentRequest)
}

func TestSimulator_PriorityBuffer_RejectsSecondBufferedArrival(t *testing.T) {
	// GIVEN three sources arriving together, one slow device and a single slot
	s := mustSimulator(t, Config{
		TargetRequests:     3,
		BufferCapacity:     1,
		SourcePeriods:      []int64{10, 10, 10},
		DeviceCoefficients: []int64{100},
		BufferPolicy:       BufferPriority,
	})

	// WHEN the three simultaneous arrivals are dispatched
	for i := 0; i < 3; i++ {
		ev := s.Step()
		require.Equal(t, NewRequestEvent(10, i), ev)
	}

	// THEN source 0 is in service, source 1 is buffered, source 2 is rejected on arrival
	assert.Equal(t, &Request{SourceID: 0, Sequence: 0, GenerationTime: 10}, s.Devices()[0].CurrentRequest)
	assert.Equal(t, []Request{{SourceID: 1, Sequence: 0, GenerationTime: 10}}, s.Buffered())
	assert.Equal(t, int64(1), s.Rejected())
	sources := s.Sources()
	assert.Equal(t, int64(0), sources[1].Rejected)
	assert.Equal(t, int64(1), sources[2].Rejected)

	// AND the buffered request is served when the device frees up
	s.RunToCompletion()
	assert.Equal(t, int64(210), s.Clock())
	sources = s.Sources()
	assert.Equal(t, ElementStatistics{TotalTime: 100, TotalTimeSquared: 10000}, sources[1].Wait)
	assert.Equal(t, ElementStatistics{TotalTime: 100, TotalTimeSquared: 10000}, sources[1].Service)
	assert.Equal(t, ElementStatistics{}, sources[2].Service)
}

func TestSimulator_RoundRobinBuffer_EvictionCountsAgainstEvictedSource(t *testing.T) {
	// GIVEN a full single-slot round-robin buffer holding a request from source 0
	s := mustSimulator(t, Config{
		TargetRequests:     3,
		BufferCapacity:     1,
		SourcePeriods:      []int64{10, 10, 10},
		DeviceCoefficients: []int64{100},
		BufferPolicy:       BufferRoundRobin,
	})

	// WHEN sources 0, 1 and 2 arrive at t=10
	s.Step() // source 0 served
	s.Step() // source 1 buffered
	s.Step() // source 2 evicts source 1

	// THEN source 1's request is the rejection and source 2's request waits
	sources := s.Sources()
	assert.Equal(t, int64(1), sources[1].Rejected)
	assert.Equal(t, int64(0), sources[2].Rejected)
	assert.Equal(t, []Request{{SourceID: 2, Sequence: 0, GenerationTime: 10}}, s.Buffered())
}

func TestSimulator_TargetReached_PurgesArrivalsAndDrainsReleases(t *testing.T) {
	s := mustSimulator(t, Config{
		TargetRequests:     4,
		BufferCapacity:     2,
		SourcePeriods:      []int64{3, 5},
		DeviceCoefficients: []int64{50},
	})

	reached := false
	for !s.IsCompleted() {
		ev := s.Step()
		if reached {
			assert.NotEqual(t, EventNewRequest, ev.Kind, "arrival popped after target reached at tick %d", ev.Time)
		}
		if s.Received() == s.Target() && !reached {
			reached = true
			for _, p := range s.PendingEvents() {
				assert.Equal(t, EventDeviceRelease, p.Kind)
			}
			for _, src := range s.Sources() {
				assert.Equal(t, Never, src.NextEventTime)
			}
		}
	}
	assert.True(t, reached)
	assert.Equal(t, int64(4), s.Received())
}

func TestSimulator_Invariants_HoldAtEveryStep(t *testing.T) {
	for _, bufferPolicy := range []string{BufferPriority, BufferRoundRobin} {
		for _, devicePolicy := range []string{DeviceFirstFree, DeviceRoundRobin} {
			t.Run(bufferPolicy+"/"+devicePolicy, func(t *testing.T) {
				s := mustSimulator(t, Config{
					TargetRequests:     300,
					BufferCapacity:     2,
					SourcePeriods:      []int64{3, 5, 7},
					DeviceCoefficients: []int64{6, 8},
					Law:                LawStochastic,
					BufferPolicy:       bufferPolicy,
					DevicePolicy:       devicePolicy,
					Seed:               11,
				})

				last := int64(0)
				for !s.IsCompleted() {
					ev := s.Step()
					require.GreaterOrEqual(t, ev.Time, last, "time went backwards")
					last = ev.Time

					require.LessOrEqual(t, s.Received(), s.Target())
					require.LessOrEqual(t, s.Rejected(), s.Received())
					require.LessOrEqual(t, len(s.Buffered()), s.BufferCapacity())
					assertRejectionsAddUp(t, s)
					assertCalendarMirror(t, s)
					if s.Clock() > 0 {
						for i, d := range s.Devices() {
							u, err := d.Utilization(s.Clock())
							require.NoError(t, err)
							require.GreaterOrEqual(t, u, 0.0, "device %d", i)
							require.LessOrEqual(t, u, 1.0, "device %d", i)
						}
					}
				}

				assert.Equal(t, s.Target(), s.Received())
				assert.Empty(t, s.Buffered())
				for i, d := range s.Devices() {
					u, err := d.Utilization(s.Clock())
					require.NoError(t, err)
					assert.GreaterOrEqual(t, u, 0.0, "device %d", i)
					assert.LessOrEqual(t, u, 1.0, "device %d", i)
				}
			})
		}
	}
}

func assertRejectionsAddUp(t *testing.T, s *Simulator) {
	t.Helper()
	var sum, generated int64
	for _, src := range s.Sources() {
		sum += src.Rejected
		generated += src.Generated
	}
	require.Equal(t, s.Rejected(), sum)
	require.Equal(t, s.Received(), generated)
}

// assertCalendarMirror checks that NextEventTime agrees with the calendar.
func assertCalendarMirror(t *testing.T, s *Simulator) {
	t.Helper()
	sourceNext := map[int]int64{}
	deviceNext := map[int]int64{}
	for _, ev := range s.PendingEvents() {
		switch ev.Kind {
		case EventNewRequest:
			require.NotContains(t, sourceNext, ev.ID, "two arrivals pending for source %d", ev.ID)
			sourceNext[ev.ID] = ev.Time
		case EventDeviceRelease:
			require.NotContains(t, deviceNext, ev.ID, "two releases pending for device %d", ev.ID)
			deviceNext[ev.ID] = ev.Time
		}
	}
	for i, src := range s.Sources() {
		want, ok := sourceNext[i]
		if !ok {
			want = Never
		}
		require.Equal(t, want, src.NextEventTime, "source %d", i)
	}
	for i, dev := range s.Devices() {
		want, ok := deviceNext[i]
		if !ok {
			want = Never
		}
		require.Equal(t, want, dev.NextEventTime, "device %d", i)
		require.Equal(t, ok, dev.Busy(), "device %d busy without pending release", i)
	}
}

func TestSimulator_Step_AfterCompletionIsSyntheticEnd(t *testing.T) {
	s := mustSimulator(t, Config{
		TargetRequests:     1,
		BufferCapacity:     1,
		SourcePeriods:      []int64{4},
		DeviceCoefficients: []int64{2},
	})
	s.RunToCompletion()
	require.True(t, s.IsCompleted())
	before := s.Sources()

	ev := s.Step()

	assert.Equal(t, EndOfSimulationEvent(6), ev)
	assert.Equal(t, int64(6), s.Clock())
	assert.Equal(t, before, s.Sources())
}

func TestSimulator_Reset_RunIsIdempotent(t *testing.T) {
	for _, bufferPolicy := range []string{BufferPriority, BufferRoundRobin} {
		t.Run(bufferPolicy, func(t *testing.T) {
			s := mustSimulator(t, Config{
				TargetRequests:     200,
				BufferCapacity:     3,
				SourcePeriods:      []int64{4, 6, 9},
				DeviceCoefficients: []int64{7, 11},
				BufferPolicy:       bufferPolicy,
				DevicePolicy:       DeviceRoundRobin,
			})
			s.RunToCompletion()
			clock, rejected := s.Clock(), s.Rejected()
			sources, devices := s.Sources(), s.Devices()

			for i := 0; i < 2; i++ {
				s.Reset()
				assert.Equal(t, int64(0), s.Clock())
				assert.Equal(t, int64(0), s.Received())
				assert.Len(t, s.PendingEvents(), 3)

				s.RunToCompletion()
				assert.Equal(t, clock, s.Clock())
				assert.Equal(t, rejected, s.Rejected())
				assert.Equal(t, sources, s.Sources())
				assert.Equal(t, devices, s.Devices())
			}
		})
	}
}

func TestSimulator_ResetWithTarget(t *testing.T) {
	s := mustSimulator(t, Config{
		TargetRequests:     2,
		BufferCapacity:     1,
		SourcePeriods:      []int64{10},
		DeviceCoefficients: []int64{1},
	})
	s.RunToCompletion()

	require.NoError(t, s.ResetWithTarget(5))
	s.RunToCompletion()

	assert.Equal(t, int64(5), s.Target())
	assert.Equal(t, int64(5), s.Received())
	assert.Equal(t, int64(51), s.Clock())
	assert.ErrorIs(t, s.ResetWithTarget(0), ErrInvalidConfig)
}

func TestSimulator_SameSeedSameResults(t *testing.T) {
	cfg := Config{
		TargetRequests:     500,
		BufferCapacity:     4,
		SourcePeriods:      []int64{5, 8},
		DeviceCoefficients: []int64{9, 9, 12},
		Law:                LawStochastic,
		BufferPolicy:       BufferRoundRobin,
		Seed:               2024,
	}
	a := mustSimulator(t, cfg)
	b := mustSimulator(t, cfg)

	a.RunToCompletion()
	b.RunToCompletion()

	assert.Equal(t, a.Clock(), b.Clock())
	assert.Equal(t, a.Rejected(), b.Rejected())
	assert.Equal(t, a.Sources(), b.Sources())
	assert.Equal(t, a.Devices(), b.Devices())
	assert.Equal(t, NewSimulationKey(2024), a.Key())
}

func TestSimulator_AddDevice(t *testing.T) {
	s := mustSimulator(t, Config{
		TargetRequests:     10,
		BufferCapacity:     1,
		SourcePeriods:      []int64{1},
		DeviceCoefficients: []int64{3},
	})

	require.NoError(t, s.AddDevice(3))
	require.NoError(t, s.AddDevice(3))
	assert.ErrorIs(t, s.AddDevice(0), ErrInvalidConfig)

	devices := s.Devices()
	require.Len(t, devices, 3)
	assert.Equal(t, newDeviceStatistics(), devices[2])
	assert.Equal(t, []int64{3, 3, 3}, s.DeviceCoefficients())

	s.RunToCompletion()
	assert.Equal(t, int64(0), s.Rejected(), "three devices of coefficient 3 keep up with period 1")
}

func TestSimulator_SnapshotsAreIndependent(t *testing.T) {
	s := mustSimulator(t, Config{
		TargetRequests:     2,
		BufferCapacity:     1,
		SourcePeriods:      []int64{1, 1},
		DeviceCoefficients: []int64{10},
	})
	s.Step()
	s.Step()

	devices := s.Devices()
	require.NotNil(t, devices[0].CurrentRequest)
	devices[0].CurrentRequest.Sequence = 42
	devices[0].TimeInUsage = -1
	sources := s.Sources()
	sources[0].Generated = 99
	buffered := s.Buffered()
	require.Len(t, buffered, 1)
	buffered[0].SourceID = 7
	periods := s.SourcePeriods()
	periods[0] = 1000

	assert.Equal(t, int64(0), s.Devices()[0].CurrentRequest.Sequence)
	assert.Equal(t, int64(10), s.Devices()[0].TimeInUsage)
	assert.Equal(t, int64(1), s.Sources()[0].Generated)
	assert.Equal(t, 1, s.Buffered()[0].SourceID)
	assert.Equal(t, []int64{1, 1}, s.SourcePeriods())
}

func TestSimulator_ConfigIsCopied(t *testing.T) {
	cfg := Config{
		TargetRequests:     1,
		BufferCapacity:     1,
		SourcePeriods:      []int64{5},
		DeviceCoefficients: []int64{2},
	}
	s := mustSimulator(t, cfg)
	cfg.SourcePeriods[0] = 500

	s.RunToCompletion()

	assert.Equal(t, int64(7), s.Clock())
}

func TestNewSimulator_InvalidConfig(t *testing.T) {
	_, err := NewSimulator(Config{TargetRequests: 1, BufferCapacity: 1, DeviceCoefficients: []int64{1}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewSimulatorWithPolicies(validConfig(), Policies{Buffer: NewPriorityBuffer(1)})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSimulator_RejectionProbability(t *testing.T) {
	s := mustSimulator(t, validConfig())
	_, err := s.RejectionProbability()
	assert.ErrorIs(t, err, ErrNoSamples)

	s.RunToCompletion()
	p, err := s.RejectionProbability()
	require.NoError(t, err)
	assert.InDelta(t, float64(s.Rejected())/float64(s.Received()), p, 1e-12)
}

// recordingBuffer wraps a BufferPolicy and counts calls.
type recordingBuffer struct {
	BufferPolicy
	admits, selects int
}

func (b *recordingBuffer) Admit(r Request) (Request, bool) {
	b.admits++
	return b.BufferPolicy.Admit(r)
}

func (b *recordingBuffer) SelectNext() (Request, bool) {
	b.selects++
	return b.BufferPolicy.SelectNext()
}

// fixedLaw always returns the same duration.
type fixedLaw int64

func (l fixedLaw) Duration(int64) int64 { return int64(l) }

func TestNewSimulatorWithPolicies_DelegatesDecisions(t *testing.T) {
	// GIVEN injected strategies
	buffer := &recordingBuffer{BufferPolicy: NewPriorityBuffer(5)}
	s, err := NewSimulatorWithPolicies(Config{
		TargetRequests:     4,
		BufferCapacity:     5,
		SourcePeriods:      []int64{1},
		DeviceCoefficients: []int64{1},
	}, Policies{Buffer: buffer, Devices: &FirstFreePicker{}, Service: fixedLaw(10)})
	require.NoError(t, err)

	// WHEN the run completes
	s.RunToCompletion()

	// THEN the injected law set the durations and the buffer saw every wait
	assert.Equal(t, int64(40), s.Devices()[0].TimeInUsage)
	assert.Equal(t, 3, buffer.admits)
	assert.Equal(t, 4, buffer.selects)
	assert.Equal(t, int64(41), s.Clock())
}

func TestSimulator_Trace_RecordsDecisions(t *testing.T) {
	cfg := Config{
		TargetRequests:     3,
		BufferCapacity:     1,
		SourcePeriods:      []int64{10, 10, 10},
		DeviceCoefficients: []int64{100},
		Trace:              "decisions",
	}
	s := mustSimulator(t, cfg)

	s.RunToCompletion()

	require.NotNil(t, s.Trace)
	require.Len(t, s.Trace.Rejections, 1)
	assert.Equal(t, 2, s.Trace.Rejections[0].SourceID)
	assert.False(t, s.Trace.Rejections[0].Evicted)
	require.Len(t, s.Trace.Services, 2)
	assert.Equal(t, int64(100), s.Trace.Services[1].Wait)

	s.Reset()
	assert.Empty(t, s.Trace.Services)

	cfg.Trace = ""
	assert.Nil(t, mustSimulator(t, cfg).Trace)
}
