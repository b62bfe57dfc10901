package breaker

import (
	"errors"
	"net/http"
	"time"

	"shopsearch-be/internal/apperror"
	"shopsearch-be/internal/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	tripAfter   = 5
	openTimeout = 30 * time.Second
)

// New returns a circuit breaker for one upstream. Only transport failures and
// 5xx answers count against it; a 4xx means the upstream is healthy.
func New(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		},
		IsSuccessful: IsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Named("breaker").Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// IsHealthy reports whether err should leave the breaker closed.
func IsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status < http.StatusInternalServerError
	}
	return false
}

// IsOpen reports whether err was produced by a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
