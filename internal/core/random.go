package core

import (
	"math/rand/v2"
	"sync"
	"time"
)

// LockedRandom is a seedable RandomSource safe for concurrent use
type LockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource creates a RandomSource. A zero seed seeds from the clock.
func NewRandomSource(seed uint64) *LockedRandom {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &LockedRandom{r: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// IntN returns a pseudo-random index in [0, n)
func (l *LockedRandom) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
