package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Allow while the breaker is cooling off.
var ErrOpen = errors.New("breaker open")

type BreakerState string

const (
	BreakerClosed  BreakerState = "closed"
	BreakerOpen    BreakerState = "open"
	BreakerProbing BreakerState = "probing"
)

// Breaker trips after a run of consecutive failures and lets a single probe
// request through once the cool-off has elapsed.
type Breaker struct {
	mu sync.Mutex

	threshold int
	coolOff   time.Duration

	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
}

func NewBreaker(threshold int, coolOff time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	if coolOff <= 0 {
		coolOff = 30 * time.Second
	}

	return &Breaker{
		threshold: threshold,
		coolOff:   coolOff,
		state:     BreakerClosed,
		now:       time.Now,
	}
}

func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.coolOff {
			return ErrOpen
		}
		b.state = BreakerProbing
		b.probing = true
		return nil
	case BreakerProbing:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = BreakerClosed
	b.failures = 0
	b.probing = false
	b.openedAt = time.Time{}
}

func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
	case BreakerProbing:
		b.probing = false
		b.trip()
	case BreakerOpen:
		b.openedAt = b.now()
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.coolOff {
		return BreakerProbing
	}

	return b.state
}

func (b *Breaker) trip() {
	b.state = BreakerOpen
	b.failures = 0
	b.openedAt = b.now()
}
