// Package ratelimit holds the in-memory limiters guarding message posting
// and invite joins. State is per process; a multi-instance deployment
// limits per instance.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

type window struct {
	count int
	start time.Time
}

// WindowLimiter allows maxAttempts per key in a fixed window. It guards
// invite joins per client IP.
type WindowLimiter struct {
	states      *store[window]
	maxAttempts int
	length      time.Duration
}

func NewWindowLimiter(maxAttempts int, length time.Duration) *WindowLimiter {
	idle := func(w *window, now time.Time) bool {
		return now.Sub(w.start) >= length
	}
	return &WindowLimiter{
		states:      newStore(idle),
		maxAttempts: maxAttempts,
		length:      length,
	}
}

// Allow counts one attempt for key. Rejected attempts count too.
func (l *WindowLimiter) Allow(key string) bool {
	var ok bool
	l.states.update(key, func(w *window, now time.Time) {
		if w.start.IsZero() || now.Sub(w.start) >= l.length {
			*w = window{start: now}
		}
		w.count++
		ok = w.count <= l.maxAttempts
	})
	return ok
}

// RetryAfterSeconds is the time left in key's window, rounded up.
func (l *WindowLimiter) RetryAfterSeconds(key string) int {
	seconds := 0
	l.states.peek(key, func(w *window, now time.Time) {
		seconds = ceilSeconds(w.start.Add(l.length).Sub(now))
	})
	return seconds
}

// Stop ends the sweeper goroutine.
func (l *WindowLimiter) Stop() {
	l.states.stop()
}

// ExtractIP returns the client address: the first X-Forwarded-For entry,
// then X-Real-IP, then the host of RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage renders a wait in seconds as "N second(s)" or
// "N minute(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
