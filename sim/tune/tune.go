// Package tune searches for the number of devices needed to keep the
// rejection probability at or under a target.
package tune

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queue-sim/sim"
)

const (
	// studentT is the t-quantile for a 0.9 confidence level.
	studentT = 1.643
	// relativePrecision is the accepted relative error of the rejection estimate.
	relativePrecision = 0.1
)

// ErrTargetUnreachable is returned when MaxDevices is reached without meeting the target.
var ErrTargetUnreachable = errors.New("target rejection probability not reached")

// Options configures Devices.
type Options struct {
	TargetRejection      float64 // acceptable rejection probability, in [0, 1]
	NewDeviceCoefficient int64   // coefficient of every added device
	MaxRequests          int64   // upper bound on the sample size per estimate
	MaxDevices           int     // upper bound on the device count
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.TargetRejection < 0 || o.TargetRejection > 1 || math.IsNaN(o.TargetRejection) {
		return fmt.Errorf("target rejection must be in [0, 1], got %f", o.TargetRejection)
	}
	if o.NewDeviceCoefficient <= 0 {
		return fmt.Errorf("new device coefficient must be positive, got %d", o.NewDeviceCoefficient)
	}
	if o.MaxRequests <= 0 {
		return fmt.Errorf("max requests must be positive, got %d", o.MaxRequests)
	}
	if o.MaxDevices <= 0 {
		return fmt.Errorf("max devices must be positive, got %d", o.MaxDevices)
	}
	return nil
}

// Result reports the outcome of Devices.
type Result struct {
	Devices              int
	AddedDevices         int
	RejectionProbability float64
	Requests             int64 // sample size of the final estimate
}

// NextTargetRequests returns the sample size needed to estimate rejection
// probability p within the relative precision: t²(1-p) / (p·δ²).
// Returns math.MaxInt64 for p == 0.
func NextTargetRequests(p float64) int64 {
	if p <= 0 {
		return math.MaxInt64
	}
	n := studentT * studentT * (1 - p) / (p * relativePrecision * relativePrecision)
	if n >= math.MaxInt64 {
		return math.MaxInt64
	}
	return max(int64(n), 1)
}

// TrustworthyRejection runs s repeatedly, growing the target request count,
// until the rejection estimate changes by less than the relative precision
// between runs or the target reaches maxRequests. s is left completed.
func TrustworthyRejection(s *sim.Simulator, maxRequests int64) (float64, error) {
	if maxRequests <= 0 {
		return 0, fmt.Errorf("max requests must be positive, got %d", maxRequests)
	}
	prev := -1.0
	for {
		s.RunToCompletion()
		current, err := s.RejectionProbability()
		if err != nil {
			return 0, fmt.Errorf("estimating rejection: %w", err)
		}
		if converged(prev, current) || s.Target() >= maxRequests {
			return current, nil
		}
		next := min(NextTargetRequests(current), maxRequests)
		logrus.Debugf("rejection estimate %.6f over %d requests; next sample size %d", current, s.Target(), next)
		prev = current
		if err := s.ResetWithTarget(next); err != nil {
			return 0, err
		}
	}
}

// converged reports whether the relative change from prev to current is
// under the relative precision.
func converged(prev, current float64) bool {
	if prev == 0 {
		return current == 0
	}
	return math.Abs((current-prev)/prev) < relativePrecision
}

// Devices adds devices to s until the trustworthy rejection probability is at
// or under opts.TargetRejection. s is left holding the final run.
func Devices(s *sim.Simulator, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	added := 0
	for {
		p, err := TrustworthyRejection(s, opts.MaxRequests)
		if err != nil {
			return Result{}, err
		}
		devices := len(s.Devices())
		logrus.Infof("%d devices: rejection probability %.6f over %d requests", devices, p, s.Target())
		res := Result{Devices: devices, AddedDevices: added, RejectionProbability: p, Requests: s.Target()}
		if p <= opts.TargetRejection {
			return res, nil
		}
		if devices >= opts.MaxDevices {
			return res, fmt.Errorf("%w: %.6f with %d devices", ErrTargetUnreachable, p, devices)
		}
		s.Reset()
		if err := s.AddDevice(opts.NewDeviceCoefficient); err != nil {
			return Result{}, err
		}
		added++
	}
}
