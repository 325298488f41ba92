package sim

import "fmt"

// DevicePicker chooses a free device for a request about to start service.
// devices is the Simulator's live table and MUST NOT be modified.
// Implementations must return a free device whenever one exists.
type DevicePicker interface {
	PickFree(devices []DeviceStatistics) (int, bool)
	Reset()
}

// FirstFreePicker returns the lowest-indexed idle device.
type FirstFreePicker struct{}

func (p *FirstFreePicker) PickFree(devices []DeviceStatistics) (int, bool) {
	for i := range devices {
		if !devices[i].Busy() {
			return i, true
		}
	}
	return 0, false
}

func (p *FirstFreePicker) Reset() {}

// RoundRobinPicker scans from a rotating start index and wraps, so that under
// sustained load no idle device is starved.
type RoundRobinPicker struct {
	next int
}

func (p *RoundRobinPicker) PickFree(devices []DeviceStatistics) (int, bool) {
	n := len(devices)
	if n == 0 {
		return 0, false
	}
	start := p.next % n
	for k := 0; k < n; k++ {
		i := (start + k) % n
		if !devices[i].Busy() {
			p.next = (i + 1) % n
			return i, true
		}
	}
	return 0, false
}

func (p *RoundRobinPicker) Reset() { p.next = 0 }

// NewDevicePicker creates a device picker by name.
// Valid names are defined in ValidDevicePolicies (policy.go).
// An empty string defaults to "first-free".
func NewDevicePicker(name string) (DevicePicker, error) {
	if !IsValidDevicePolicy(name) {
		return nil, fmt.Errorf("%w: unknown device policy %q", ErrInvalidConfig, name)
	}
	switch name {
	case "", DeviceFirstFree:
		return &FirstFreePicker{}, nil
	case DeviceRoundRobin:
		return &RoundRobinPicker{}, nil
	default:
		panic(fmt.Sprintf("unhandled device policy %q", name))
	}
}
