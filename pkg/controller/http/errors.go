package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/model/auth"
	"github.com/makola-community/makola/pkg/usecase"
	"github.com/makola-community/makola/pkg/utils/errutil"
)

// statusOf maps domain and use case errors to HTTP status codes
func statusOf(r *http.Request, err error) int {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUnauthorized):
		// Anonymous callers are asked to authenticate rather than told they are forbidden
		if !auth.RequesterFromContext(r.Context()).IsAuthenticated() {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, usecase.ErrFeatureDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(r, err)
	if status == http.StatusTooManyRequests {
		if retryAfter, ok := usecase.RetryAfter(err); ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		}
	}
	errutil.HandleHTTP(r.Context(), w, err, status)
}
