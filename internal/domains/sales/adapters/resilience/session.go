package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

var _ ports.StoreSession = (*Session)(nil)

// Settings configures the breaker guarding unit-of-work acquisition.
type Settings struct {
	// ConsecutiveFailures trips the breaker. Zero disables tripping.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

// Session fails fast with ports.ErrUnavailable while the store keeps refusing new units of work.
type Session struct {
	inner   ports.StoreSession
	breaker *gobreaker.CircuitBreaker[ports.UnitOfWork]
}

// NewSession wraps a store session with a circuit breaker around Begin.
func NewSession(inner ports.StoreSession, settings Settings) *Session {
	threshold := settings.ConsecutiveFailures
	logger := settings.Logger
	breaker := gobreaker.NewCircuitBreaker[ports.UnitOfWork](gobreaker.Settings{
		Name:        "store-session",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("store circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			}
		},
	})
	return &Session{inner: inner, breaker: breaker}
}

// Begin acquires a unit of work unless the breaker is open.
func (s *Session) Begin(ctx context.Context) (ports.UnitOfWork, error) {
	uow, err := s.breaker.Execute(func() (ports.UnitOfWork, error) {
		return s.inner.Begin(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
	}
	return uow, err
}

func (s *Session) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// State reports the breaker state for health endpoints.
func (s *Session) State() string {
	return s.breaker.State().String()
}
