// Package ratelimit provides per-key request spacing, in memory or shared
// through Redis.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled is returned by Acquire when the key was used too recently.
var ErrThrottled = errors.New("rate limited")

// RateLimiter admits at most one action per key within its window.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) error
}

// Limiter spaces requests per key (usually a host) by at least minInterval.
type Limiter struct {
	mu          sync.Mutex
	hosts       map[string]*rate.Limiter
	minInterval time.Duration
}

func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		hosts:       make(map[string]*rate.Limiter),
		minInterval: minInterval,
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.minInterval), 1)
		l.hosts[key] = lim
	}
	return lim
}

// Allow reports whether a request for key may proceed now. A refused call
// does not push the next slot back.
func (l *Limiter) Allow(key string) bool {
	if l.minInterval <= 0 {
		return true
	}
	return l.get(key).Allow()
}

// Wait blocks until a request for key may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l.minInterval <= 0 {
		return ctx.Err()
	}
	return l.get(key).Wait(ctx)
}

// Acquire is the non-blocking form of Wait used for throttling user actions.
func (l *Limiter) Acquire(_ context.Context, key string) error {
	if !l.Allow(key) {
		return ErrThrottled
	}
	return nil
}

func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hosts, key)
}

func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hosts = make(map[string]*rate.Limiter)
}
