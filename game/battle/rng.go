package battle

import "sync"

// RNG is the single randomness source for the engine. Every roll (crit,
// variance, status chances, order coin flips) goes through it, so a seeded
// *rand.Rand reproduces a battle turn for turn.
type RNG interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// LockedRNG serializes access to an underlying source. *rand.Rand is not
// safe for concurrent use, and a shared resolver may run turns from multiple
// goroutines.
type LockedRNG struct {
	mu  sync.Mutex
	src RNG
}

func NewLockedRNG(src RNG) *LockedRNG {
	return &LockedRNG{src: src}
}

func (l *LockedRNG) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (l *LockedRNG) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}
