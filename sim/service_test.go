package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicLaw_ReturnsCoefficient(t *testing.T) {
	assert.Equal(t, int64(25), DeterministicLaw{}.Duration(25))
}

func TestStochasticLaw_ReproducibleWithSameSeed(t *testing.T) {
	a := NewStochasticLaw(NewPartitionedRNG(NewSimulationKey(9)).ForSubsystem(SubsystemService))
	b := NewStochasticLaw(NewPartitionedRNG(NewSimulationKey(9)).ForSubsystem(SubsystemService))

	for i := 0; i < 50; i++ {
		da, db := a.Duration(100), b.Duration(100)
		require.Equal(t, da, db, "draw %d", i)
		assert.GreaterOrEqual(t, da, int64(0))
	}
}

func TestStochasticLaw_MeanApproximatesCoefficient(t *testing.T) {
	law := NewStochasticLaw(NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemService))
	const n = 20000
	var sum int64
	for i := 0; i < n; i++ {
		sum += law.Duration(1000)
	}
	// Truncation lowers the mean by about half a tick.
	assert.InDelta(t, 1000.0, float64(sum)/n, 40.0)
}

func TestNewServiceLaw(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(1))

	l, err := NewServiceLaw("", rng)
	require.NoError(t, err)
	assert.IsType(t, DeterministicLaw{}, l)

	l, err = NewServiceLaw(LawStochastic, rng)
	require.NoError(t, err)
	assert.IsType(t, &StochasticLaw{}, l)

	_, err = NewServiceLaw("uniform", rng)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewStochasticLaw_NilRNGPanics(t *testing.T) {
	assert.Panics(t, func() { NewStochasticLaw(nil) })
}
