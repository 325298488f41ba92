// Per-source and per-device statistics tables maintained by the Simulator.

package sim

import (
	"errors"
	"math"
)

// Never is the next-event sentinel meaning "nothing pending".
const Never int64 = math.MaxInt64

var (
	// ErrNoSamples is returned when a mean or variance is requested over zero requests.
	ErrNoSamples = errors.New("no requests to average over")
	// ErrZeroElapsed is returned when utilization is requested before time has advanced.
	ErrZeroElapsed = errors.New("no simulated time has elapsed")
)

// ElementStatistics accumulates durations and squared durations so that
// mean and variance can be derived lazily.
type ElementStatistics struct {
	TotalTime        int64
	TotalTimeSquared int64
}

// AddTime records one duration.
func (s *ElementStatistics) AddTime(t int64) {
	s.TotalTime += t
	s.TotalTimeSquared += t * t
}

// Mean returns TotalTime / n.
func (s ElementStatistics) Mean(n int64) (float64, error) {
	if n == 0 {
		return 0, ErrNoSamples
	}
	return float64(s.TotalTime) / float64(n), nil
}

// Variance returns TotalTimeSquared/n - mean².
func (s ElementStatistics) Variance(n int64) (float64, error) {
	mean, err := s.Mean(n)
	if err != nil {
		return 0, err
	}
	return float64(s.TotalTimeSquared)/float64(n) - mean*mean, nil
}

// SourceStatistics is the per-source table row.
// Wait holds time spent in the buffer (including time-to-rejection for
// rejected requests); Service holds device time.
type SourceStatistics struct {
	Generated     int64
	Rejected      int64
	NextEventTime int64
	Wait          ElementStatistics
	Service       ElementStatistics
}

// MeanWait is the average buffer time per generated request.
func (s SourceStatistics) MeanWait() (float64, error) {
	return s.Wait.Mean(s.Generated)
}

// MeanService is the average device time per generated request.
func (s SourceStatistics) MeanService() (float64, error) {
	return s.Service.Mean(s.Generated)
}

// WaitVariance is the variance of buffer time.
func (s SourceStatistics) WaitVariance() (float64, error) {
	return s.Wait.Variance(s.Generated)
}

// ServiceVariance is the variance of device time.
func (s SourceStatistics) ServiceVariance() (float64, error) {
	return s.Service.Variance(s.Generated)
}

// TotalDelay is mean wait plus mean service time.
func (s SourceStatistics) TotalDelay() (float64, error) {
	wait, err := s.MeanWait()
	if err != nil {
		return 0, err
	}
	service, err := s.MeanService()
	if err != nil {
		return 0, err
	}
	return wait + service, nil
}

// RejectionProbability is Rejected / Generated.
func (s SourceStatistics) RejectionProbability() (float64, error) {
	if s.Generated == 0 {
		return 0, ErrNoSamples
	}
	return float64(s.Rejected) / float64(s.Generated), nil
}

// DeviceStatistics is the per-device table row.
type DeviceStatistics struct {
	NextEventTime  int64    // Never when no release is pending
	TimeInUsage    int64    // Sum of all service durations started on this device
	CurrentRequest *Request // nil when idle
}

// Busy reports whether the device is serving a request.
func (d DeviceStatistics) Busy() bool {
	return d.CurrentRequest != nil
}

// Utilization is the busy time elapsed by clock over clock.
// TimeInUsage already holds the full duration of the current service, so the
// part still ahead of clock is left out.
func (d DeviceStatistics) Utilization(clock int64) (float64, error) {
	if clock == 0 {
		return 0, ErrZeroElapsed
	}
	used := d.TimeInUsage
	if d.Busy() && d.NextEventTime != Never && d.NextEventTime > clock {
		used -= d.NextEventTime - clock
	}
	return float64(used) / float64(clock), nil
}

// clone returns a copy that shares no memory with d.
func (d DeviceStatistics) clone() DeviceStatistics {
	if d.CurrentRequest != nil {
		r := *d.CurrentRequest
		d.CurrentRequest = &r
	}
	return d
}

func newDeviceStatistics() DeviceStatistics {
	return DeviceStatistics{NextEventTime: Never}
}
