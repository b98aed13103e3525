package augment

import (
	"fmt"
	"math/rand"
)

// newRand returns a deterministic source for seed >= 0 and a randomly seeded
// one otherwise.
func newRand(seed int64) *rand.Rand {
	if seed >= 0 {
		return rand.New(rand.NewSource(seed)) //nolint:gosec // Intentional deterministic seed for reproducibility
	}
	return rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // User requested random seed
}

// ConstantSampler always returns Value.
type ConstantSampler struct {
	Value any
}

// Sample returns n copies of Value.
func (s ConstantSampler) Sample(n int) (any, error) {
	out := make([]any, n)
	for i := range out {
		out[i] = s.Value
	}
	return out, nil
}

// UniformSampler draws float32 values uniformly from [Low, High).
// Not safe for concurrent use.
type UniformSampler struct {
	Low, High float64
	rng       *rand.Rand
}

// NewUniformSampler creates a uniform sampler. Seed < 0 means random.
func NewUniformSampler(low, high float64, seed int64) (*UniformSampler, error) {
	if high < low {
		return nil, fmt.Errorf("uniform: high (%v) must be >= low (%v)", high, low)
	}
	return &UniformSampler{Low: low, High: high, rng: newRand(seed)}, nil
}

// Sample draws n values.
func (s *UniformSampler) Sample(n int) (any, error) {
	out := make([]float32, n)
	width := s.High - s.Low
	for i := range out {
		out[i] = float32(s.Low + s.rng.Float64()*width)
	}
	return out, nil
}

// NormalSampler draws float32 values from N(Mean, Std^2).
// Not safe for concurrent use.
type NormalSampler struct {
	Mean, Std float64
	rng       *rand.Rand
}

// NewNormalSampler creates a normal sampler. Seed < 0 means random.
func NewNormalSampler(mean, std float64, seed int64) (*NormalSampler, error) {
	if std < 0 {
		return nil, fmt.Errorf("normal: std must be >= 0, got %v", std)
	}
	return &NormalSampler{Mean: mean, Std: std, rng: newRand(seed)}, nil
}

// Sample draws n values.
func (s *NormalSampler) Sample(n int) (any, error) {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(s.Mean + s.rng.NormFloat64()*s.Std)
	}
	return out, nil
}

// DiscreteSampler picks values from a fixed population. Values may be of any
// type; numbers become tensors in Parameter.Forward, other values are returned
// as a []any.
// Not safe for concurrent use.
type DiscreteSampler struct {
	Values      []any
	Replacement bool
	rng         *rand.Rand
}

// NewDiscreteSampler creates a discrete sampler. Seed < 0 means random.
func NewDiscreteSampler(values []any, replacement bool, seed int64) (*DiscreteSampler, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("discrete: population is empty")
	}
	return &DiscreteSampler{Values: values, Replacement: replacement, rng: newRand(seed)}, nil
}

// Sample picks n values. Without replacement n must not exceed the population.
func (s *DiscreteSampler) Sample(n int) (any, error) {
	out := make([]any, n)
	if s.Replacement {
		for i := range out {
			out[i] = s.Values[s.rng.Intn(len(s.Values))]
		}
		return out, nil
	}

	if n > len(s.Values) {
		return nil, fmt.Errorf("discrete: cannot draw %d values without replacement from %d", n, len(s.Values))
	}
	for i, j := range s.rng.Perm(len(s.Values))[:n] {
		out[i] = s.Values[j]
	}
	return out, nil
}

// NewConstantParameter returns a Parameter that always yields value.
func NewConstantParameter(value any) *Parameter {
	return NewParameter(ConstantSampler{Value: value})
}

// NewUniformParameter returns a Parameter drawing from [low, high).
func NewUniformParameter(low, high float64, seed int64) (*Parameter, error) {
	s, err := NewUniformSampler(low, high, seed)
	if err != nil {
		return nil, err
	}
	return NewParameter(s), nil
}

// NewNormalParameter returns a Parameter drawing from N(mean, std^2).
func NewNormalParameter(mean, std float64, seed int64) (*Parameter, error) {
	s, err := NewNormalSampler(mean, std, seed)
	if err != nil {
		return nil, err
	}
	return NewParameter(s), nil
}

// NewDiscreteParameter returns a Parameter picking from values.
func NewDiscreteParameter(values []any, replacement bool, seed int64) (*Parameter, error) {
	s, err := NewDiscreteSampler(values, replacement, seed)
	if err != nil {
		return nil, err
	}
	return NewParameter(s), nil
}
