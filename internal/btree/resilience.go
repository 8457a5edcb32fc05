package btree

import (
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RetryConfig configures exponential backoff retry behavior for
// actions wrapped with Retry.
type RetryConfig struct {
	InitialInterval     time.Duration // Initial retry interval (default 100ms)
	MaxInterval         time.Duration // Maximum retry interval (default 10s)
	MaxElapsedTime      time.Duration // Maximum total retry time (default 2min)
	Multiplier          float64       // Backoff multiplier (default 2.0)
	RandomizationFactor float64       // Jitter factor (default 0.5)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      2 * time.Minute,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// Retry wraps an action with exponential backoff. The action is retried
// only on fatal (error-returning) attempts: a clean false is a domain
// outcome, not a failure to retry. If the backoff budget is exhausted
// the last error is surfaced, turning into a fatal abort at the Do node.
func Retry(a Action, cfg RetryConfig) Action {
	return func() (bool, error) {
		var result bool

		operation := func() error {
			ok, err := a()
			if err != nil {
				return err
			}
			result = ok
			return nil
		}

		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = cfg.InitialInterval
		policy.MaxInterval = cfg.MaxInterval
		policy.MaxElapsedTime = cfg.MaxElapsedTime
		policy.Multiplier = cfg.Multiplier
		policy.RandomizationFactor = cfg.RandomizationFactor

		if err := backoff.Retry(operation, policy); err != nil {
			return false, err
		}
		return result, nil
	}
}

// BreakerRegistry manages per-action-name circuit breakers.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry creates a new circuit breaker registry.
func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the circuit breaker for the given action name.
// Creates a new one if it doesn't exist.
func (r *BreakerRegistry) Get(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3, // Allow 3 test requests in half-open state
		Interval:    0, // Don't clear counts automatically
		Timeout:     30 * time.Second, // Stay open for 30s before testing recovery
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip circuit after 5 consecutive failures
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
	})

	r.breakers[name] = cb
	return cb
}

// WithBreaker wraps an action with circuit breaker protection. An open
// circuit degrades to a domain failure (false) rather than a fatal
// abort, so guarded subtrees can fall back to alternatives while the
// breaker recovers.
func WithBreaker(name string, reg *BreakerRegistry, a Action) Action {
	cb := reg.Get(name)
	return func() (bool, error) {
		result, err := cb.Execute(func() (interface{}, error) {
			ok, err := a()
			return ok, err
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return false, nil
			}
			return false, err
		}
		return result.(bool), nil
	}
}
