package main

import (
	"fmt"
	"math/rand"

	"github.com/dgryski/go-wyhash"
)

// Rng wraps a seeded random source. Seeding from a string means the whole
// run is reproducible from a single --seed value; each visit derives its own
// Rng so visits are independent of scheduling order.
type Rng struct {
	rng *rand.Rand
}

func NewRng(s string) Rng {
	return Rng{rand.New(rand.NewSource(int64(wyhash.Hash([]byte(s), 2467825690))))}
}

// DeriveRng returns a new Rng seeded from the run seed plus a sequence
// number.
func DeriveRng(seed string, n int64) Rng {
	return NewRng(fmt.Sprintf("%s/%d", seed, n))
}

func (r Rng) Intn(n int) int {
	return r.rng.Intn(n)
}

func (r Rng) Uint32() uint32 {
	return r.rng.Uint32()
}

func (r Rng) Uint64() uint64 {
	return r.rng.Uint64()
}

func (r Rng) Choice(a []string) string {
	return a[r.Intn(len(a))]
}

func (r Rng) Bool() bool {
	return r.Intn(2) == 0
}

// BoolWithProb returns true with probability p percent. p <= 0 is always
// false, p >= 100 always true, with no draw consumed at the extremes.
func (r Rng) BoolWithProb(p int) bool {
	if p <= 0 {
		return false
	}
	if p >= 100 {
		return true
	}
	return WeightedChoice(r, []Weighted[bool]{
		{Value: true, Weight: p},
		{Value: false, Weight: 100 - p},
	})
}

// Weighted is one option in a weighted discrete choice.
type Weighted[T any] struct {
	Value  T
	Weight int
}

// WeightedChoice returns one of the given values with probability
// proportional to its weight. Zero-weight options are never returned.
// It panics if the total weight is not positive; choices are configuration
// and an all-zero table is a programming error.
func WeightedChoice[T any](r Rng, choices []Weighted[T]) T {
	total := 0
	for _, c := range choices {
		total += c.Weight
	}
	if total <= 0 {
		panic("WeightedChoice: total weight must be positive")
	}
	n := r.Intn(total)
	for _, c := range choices {
		n -= c.Weight
		if n < 0 {
			return c.Value
		}
	}
	// unreachable
	return choices[len(choices)-1].Value
}
