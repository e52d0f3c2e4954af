package ratelimit

import (
	"sync"
	"time"
)

// sweepInterval is how often idle keys are forgotten.
const sweepInterval = time.Minute

// store keeps one limiter state per key. States are created zeroed on
// first use and dropped by the sweeper once idle reports true.
type store[S any] struct {
	mu     sync.Mutex
	states map[string]*S
	idle   func(s *S, now time.Time) bool
	now    func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

func newStore[S any](idle func(s *S, now time.Time) bool) *store[S] {
	st := &store[S]{
		states: make(map[string]*S),
		idle:   idle,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go st.sweepLoop()
	return st
}

// update runs fn on key's state under the lock.
func (st *store[S]) update(key string, fn func(s *S, now time.Time)) {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.states[key]
	if !ok {
		s = new(S)
		st.states[key] = s
	}
	fn(s, now)
}

// peek runs fn on key's state when there is one.
func (st *store[S]) peek(key string, fn func(s *S, now time.Time)) {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.states[key]; ok {
		fn(s, now)
	}
}

func (st *store[S]) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.states)
}

func (st *store[S]) stop() {
	st.stopOnce.Do(func() { close(st.done) })
}

func (st *store[S]) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.sweep()
		case <-st.done:
			return
		}
	}
}

func (st *store[S]) sweep() {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	for key, s := range st.states {
		if st.idle(s, now) {
			delete(st.states, key)
		}
	}
}

// ceilSeconds rounds d up to whole seconds; zero or negative gives 0.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
