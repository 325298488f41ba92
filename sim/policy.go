package sim

// Buffer policy names.
const (
	BufferPriority   = "priority"
	BufferRoundRobin = "round-robin"
)

// Device policy names.
const (
	DeviceFirstFree  = "first-free"
	DeviceRoundRobin = "round-robin"
)

// Service law names.
const (
	LawDeterministic = "deterministic"
	LawStochastic    = "stochastic"
)

// ValidBufferPolicies is the set of recognized buffer policy names.
// Shared by Config.Validate() and NewBufferPolicy() to avoid duplication.
var ValidBufferPolicies = map[string]bool{"": true, BufferPriority: true, BufferRoundRobin: true}

// ValidDevicePolicies is the set of recognized device policy names.
var ValidDevicePolicies = map[string]bool{"": true, DeviceFirstFree: true, DeviceRoundRobin: true}

// ValidLaws is the set of recognized service law names.
var ValidLaws = map[string]bool{"": true, LawDeterministic: true, LawStochastic: true}

// IsValidBufferPolicy returns true if name is a recognized buffer policy.
func IsValidBufferPolicy(name string) bool { return ValidBufferPolicies[name] }

// IsValidDevicePolicy returns true if name is a recognized device policy.
func IsValidDevicePolicy(name string) bool { return ValidDevicePolicies[name] }

// IsValidLaw returns true if name is a recognized service law.
func IsValidLaw(name string) bool { return ValidLaws[name] }

// Policies bundles the decision hooks the Simulator delegates to.
type Policies struct {
	Buffer  BufferPolicy
	Devices DevicePicker
	Service ServiceLaw
}

// NewPolicies builds the policies named in cfg. Stochastic laws draw from rng.
func NewPolicies(cfg Config, rng *PartitionedRNG) (Policies, error) {
	buffer, err := NewBufferPolicy(cfg.BufferPolicy, cfg.BufferCapacity, len(cfg.SourcePeriods))
	if err != nil {
		return Policies{}, err
	}
	devices, err := NewDevicePicker(cfg.DevicePolicy)
	if err != nil {
		return Policies{}, err
	}
	service, err := NewServiceLaw(cfg.Law, rng)
	if err != nil {
		return Policies{}, err
	}
	return Policies{Buffer: buffer, Devices: devices, Service: service}, nil
}
