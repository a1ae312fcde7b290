package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Mahir9011/Cupid-Crochy/pkg/breaker"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
)

// errNoBackend is returned by backend calls when no hosted backend is wired.
var errNoBackend = errors.New("hosted backend is not configured")

// callBackend runs fn through the breaker. A nil breaker calls fn directly.
func callBackend[T any](ctx context.Context, b *breaker.Breaker, configured bool, fn func(ctx context.Context) (T, error)) (T, error) {
	if !configured {
		var zero T
		return zero, errNoBackend
	}
	if b == nil {
		return fn(ctx)
	}
	return breaker.Execute(ctx, b, fn)
}

// shouldFallback reports whether err is a backend failure rather than an
// answer from the backend.
func shouldFallback(err error) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}

// backendError maps a failed backend write to an API error.
func backendError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Unavailable(message, err)
}

// logFallback records a backend failure answered locally. Running without a
// backend is not a failure.
func logFallback(ctx context.Context, l *slog.Logger, operation string, err error) {
	if errors.Is(err, errNoBackend) {
		return
	}
	backendFallbacksTotal.WithLabelValues(operation).Inc()
	logger.WithContext(ctx, l).Warn("hosted backend failed, using fallback cache",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
