package sim

import (
	"fmt"
	"math/rand"
)

// ServiceLaw turns a device coefficient into a service duration.
type ServiceLaw interface {
	Duration(coefficient int64) int64
}

// DeterministicLaw serves every request in exactly the device coefficient.
type DeterministicLaw struct{}

func (DeterministicLaw) Duration(coefficient int64) int64 {
	return coefficient
}

// StochasticLaw scales the coefficient by an Exp(1) sample, truncated to an integer.
// Durations of zero are possible and are served instantly.
type StochasticLaw struct {
	rng *rand.Rand
}

// NewStochasticLaw creates a StochasticLaw drawing from rng.
func NewStochasticLaw(rng *rand.Rand) *StochasticLaw {
	if rng == nil {
		panic("NewStochasticLaw: rng must not be nil")
	}
	return &StochasticLaw{rng: rng}
}

func (l *StochasticLaw) Duration(coefficient int64) int64 {
	return int64(float64(coefficient) * l.rng.ExpFloat64())
}

// NewServiceLaw creates a service law by name.
// Valid names are defined in ValidLaws (policy.go).
// An empty string defaults to "deterministic".
func NewServiceLaw(name string, rng *PartitionedRNG) (ServiceLaw, error) {
	if !IsValidLaw(name) {
		return nil, fmt.Errorf("%w: unknown law %q", ErrInvalidConfig, name)
	}
	switch name {
	case "", LawDeterministic:
		return DeterministicLaw{}, nil
	case LawStochastic:
		return NewStochasticLaw(rng.ForSubsystem(SubsystemService)), nil
	default:
		panic(fmt.Sprintf("unhandled law %q", name))
	}
}
