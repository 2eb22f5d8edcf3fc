package value

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"
)

// Rand is the randomness the selector needs. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Select picks one item with probability proportional to its effective
// weight. It reports false for an empty list.
func Select(r Rand, items []Item) (Item, bool) {
	if len(items) == 0 {
		return Item{}, false
	}

	// Weights are at most MaxWeight; the sum saturates at math.MaxInt.
	total := 0
	for _, it := range items {
		w := it.EffectiveWeight()
		if total > math.MaxInt-w {
			total = math.MaxInt
			break
		}
		total += w
	}

	draw := r.Intn(total)
	cumulative := 0
	for _, it := range items {
		w := it.EffectiveWeight()
		if draw-cumulative < w {
			return it, true
		}
		cumulative += w
	}
	return items[0], true
}

// Pick selects a value string, or "" when items is empty.
func Pick(r Rand, items []Item) string {
	it, _ := Select(r, items)
	return it.Value
}

// FloatBetween draws a uniform float in [min, max).
func FloatBetween(r Rand, min, max float64) float64 {
	return r.Float64()*(max-min) + min
}

// =============================================================================
// Sources
// =============================================================================

// LockedRand is a *rand.Rand safe for concurrent use.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a LockedRand seeded with seed. A zero seed draws one from
// crypto/rand.
func NewRand(seed int64) *LockedRand {
	if seed == 0 {
		seed = NewSeed()
	}
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Int63 draws a non-negative seed for a derived source.
func (l *LockedRand) Int63() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Int63()
}

// NewSeed reads a seed from crypto/rand, falling back to 1 if the system
// source fails.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	if seed == 0 {
		seed = 1
	}
	return seed
}
