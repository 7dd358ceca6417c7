// Package ratelimit throttles bot usage per user, before any remote work is
// done on their behalf.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store defines the interface for rate limit data storage.
type Store interface {
	// Record records a request and returns the count of requests in the
	// current window. It automatically prunes expired entries.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// Scope categorizes an inbound chat event for rate limiting purposes.
type Scope string

const (
	// ScopeGlobal applies to every event from a user regardless of type.
	ScopeGlobal Scope = "global"
	// ScopeCommand applies to slash commands (key management, balance).
	ScopeCommand Scope = "command"
	// ScopeRewrite applies to messages that go through the URL pipeline and
	// can fan out into remote calls.
	ScopeRewrite Scope = "rewrite"
)

// LimitConfig is one window/max pair.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to their limits. A scope without limits is unrestricted.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// DefaultPolicy returns the stock per-user limits.
func DefaultPolicy() *Policy {
	return &Policy{
		Limits: map[Scope][]LimitConfig{
			ScopeGlobal: {
				{Window: time.Minute, Max: 30},
			},
			ScopeCommand: {
				{Window: time.Minute, Max: 10},
			},
			ScopeRewrite: {
				{Window: time.Minute, Max: 15},
				{Window: time.Hour, Max: 200},
			},
		},
	}
}

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if an event from the given user in the given scope should
	// be allowed.
	Allow(ctx context.Context, userID int64, scope Scope) (allowed bool, err error)
}

// PolicyLimiter enforces a sliding-window Policy against a Store. The global
// scope is always checked alongside the event's own scope.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

func (l *PolicyLimiter) Allow(ctx context.Context, userID int64, scope Scope) (bool, error) {
	for _, s := range []Scope{ScopeGlobal, scope} {
		limits, ok := l.policy.Limits[s]
		if !ok {
			continue
		}

		for _, limit := range limits {
			// Key combines user + scope + window for independent tracking
			key := fmt.Sprintf("%d:%s:%d", userID, s, limit.Window.Milliseconds())

			count, err := l.store.Record(ctx, key, limit.Window)
			if err != nil {
				return false, err
			}

			if count > limit.Max {
				return false, nil
			}
		}
	}

	return true, nil
}

// Compile-time check.
var _ Limiter = (*PolicyLimiter)(nil)
