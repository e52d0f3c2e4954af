package ratelimit

import "time"

// burst counts one profile's messages in the current window. While
// cooldownUntil lies ahead every message is rejected.
type burst struct {
	count         int
	start         time.Time
	cooldownUntil time.Time
}

// MessageRateLimiter throttles message posting per profile. Going over
// maxMessages inside window starts a cooldown; once it ends a fresh window
// begins.
//
//	limiter := NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)
//	if !limiter.Allow(profileID) { ... 429, Retry-After: limiter.CooldownSeconds(profileID) ... }
type MessageRateLimiter struct {
	states      *store[burst]
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
}

func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	idle := func(b *burst, now time.Time) bool {
		return now.Sub(b.start) >= window && !now.Before(b.cooldownUntil)
	}
	return &MessageRateLimiter{
		states:      newStore(idle),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
	}
}

// Allow records one message for key and reports whether it may be posted.
func (l *MessageRateLimiter) Allow(key string) bool {
	var ok bool
	l.states.update(key, func(b *burst, now time.Time) {
		if now.Before(b.cooldownUntil) {
			return
		}
		if !b.cooldownUntil.IsZero() || b.start.IsZero() || now.Sub(b.start) >= l.window {
			*b = burst{start: now}
		}

		b.count++
		if b.count > l.maxMessages {
			b.cooldownUntil = now.Add(l.cooldown)
			return
		}
		ok = true
	})
	return ok
}

// CooldownSeconds is the Retry-After value for key, 0 when not throttled.
func (l *MessageRateLimiter) CooldownSeconds(key string) int {
	seconds := 0
	l.states.peek(key, func(b *burst, now time.Time) {
		seconds = ceilSeconds(b.cooldownUntil.Sub(now))
	})
	return seconds
}

// Stop ends the sweeper goroutine.
func (l *MessageRateLimiter) Stop() {
	l.states.stop()
}
