package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/utils/logging"
)

// Handle logs the error with a message and reports it to Sentry when a
// client is configured. It returns err unchanged.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logging.From(ctx).Error(msg, errorAttrs(err)...)
	report(ctx, err)
	return err
}

// errorResponse is the JSON body written for every failed request
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleHTTP logs the error and writes a JSON error response. Server errors
// other than 501 are reported to Sentry and their message is not exposed to
// the client.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)
	attrs := append([]any{"status", statusCode}, errorAttrs(err)...)
	message := err.Error()
	if statusCode >= http.StatusInternalServerError && statusCode != http.StatusNotImplemented {
		logger.Error("HTTP error", attrs...)
		report(ctx, err)
		message = http.StatusText(statusCode)
	} else {
		logger.Warn("HTTP error", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{
		Error:   Kind(statusCode),
		Message: message,
	}); err != nil {
		logger.Error("failed to write error response", "error", err)
	}
}

// Kind returns the machine-readable error kind for an HTTP status
func Kind(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusUnprocessableEntity:
		return "invalid_transition"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusNotImplemented:
		return "not_enabled"
	default:
		return "internal"
	}
}

func errorAttrs(err error) []any {
	var ge *goerr.Error
	if errors.As(err, &ge) {
		return []any{
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		}
	}
	return []any{"error", err.Error()}
}

func report(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		var ge *goerr.Error
		if errors.As(err, &ge) {
			for k, v := range ge.Values() {
				scope.SetExtra(k, v)
			}
		}
		if evID := hub.CaptureException(err); evID != nil {
			logging.From(ctx).Info("error reported to sentry", slog.Any("event_id", *evID))
		}
	})
}
