package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// requireCurrencies checks that every code is a configured currency.
// Unknown codes are reported as ErrValidation.
func (s *BaseService) requireCurrencies(ctx context.Context, currencySvc portssvc.CurrencyReaderSvc, codes ...string) error {
	if currencySvc == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}

		if _, err := currencySvc.GetCurrencyByCode(ctx, code); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: currency code '%s' not found", apperrors.ErrValidation, code)
			}
			s.LogError(ctx, err, "Failed to validate currency", slog.String("currency_code", code))
			return fmt.Errorf("failed to validate currency '%s': %w", code, err)
		}
	}
	return nil
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
