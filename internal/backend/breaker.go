package backend

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Breaker wraps a Backend with a circuit breaker. While the circuit is open calls fail
// immediately with gobreaker.ErrOpenState instead of reaching the backend. It never retries.
type Breaker struct {
	next Backend
	cb   *gobreaker.CircuitBreaker
}

// Ensure Breaker implements Backend
var _ Backend = (*Breaker)(nil)

// NewBreaker opens the circuit after consecutiveFailures failed calls and probes again after cooldown
func NewBreaker(next Backend, consecutiveFailures uint32, cooldown time.Duration) *Breaker {
	if consecutiveFailures == 0 {
		consecutiveFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "analysis-backend",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnsupportedModality)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state change")
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *Breaker) Generate(ctx context.Context, prompt *Prompt) ([]byte, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (b *Breaker) Model() string {
	return b.next.Model()
}

// State returns the current breaker state, e.g. "closed" or "open"
func (b *Breaker) State() string {
	return b.cb.State().String()
}
