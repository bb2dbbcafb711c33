// Package circuitbreaker wraps sony/gobreaker with typed results and
// defaults tuned for on-chain RPC calls. This protects individual
// upstream endpoints; the trading-level risk breaker lives in
// business/risk and is a different machine.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config holds circuit breaker settings for one upstream.
type Config struct {
	Name        string
	MaxRequests uint32        // requests allowed through while half-open
	Interval    time.Duration // cyclic period for clearing counts while closed
	Timeout     time.Duration // open -> half-open transition delay
	MinRequests uint32        // minimum requests before the failure ratio applies
	FailureRate float64       // trip when failure ratio meets or exceeds this
}

// DefaultConfig returns settings suitable for RPC endpoints: trip after
// repeated failures, retry a single probe after 30 seconds.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		MinRequests: 5,
		FailureRate: 0.6,
	}
}

// CircuitBreaker is a typed wrapper around gobreaker.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a CircuitBreaker from config.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
	}
	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	return c.cb.Execute(fn)
}

// State returns the current breaker state string ("closed", "half-open", "open").
func (c *CircuitBreaker[T]) State() string {
	return c.cb.State().String()
}
