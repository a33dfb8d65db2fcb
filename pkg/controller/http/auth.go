package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/model/auth"
	"github.com/makola-community/makola/pkg/usecase"
	"github.com/makola-community/makola/pkg/utils/errutil"
	"github.com/makola-community/makola/pkg/utils/logging"
)

type AuthUseCase = usecase.AuthUseCaseInterface

// authMiddleware resolves the requester from the bearer token. Requests
// without credentials continue as the anonymous requester; a token that
// fails validation is rejected with 401.
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if authUC == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, present := bearerToken(r)
			if !present && !authUC.IsNoAuthn() {
				next.ServeHTTP(w, r)
				return
			}

			requester, err := authUC.Authenticate(ctx, token)
			if err != nil {
				errutil.HandleHTTP(ctx, w, err, http.StatusUnauthorized)
				return
			}

			logger := logging.From(ctx).With("requester_id", requester.ID, "role", requester.Role)
			ctx = logging.With(auth.ContextWithRequester(ctx, requester), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer" header. It
// reports whether any Authorization header was sent.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

type meResponse struct {
	Authenticated bool `json:"authenticated"`
	model.Requester
}

// meHandler returns the requester resolved for this request
func meHandler(w http.ResponseWriter, r *http.Request) {
	requester := auth.RequesterFromContext(r.Context())
	if !requester.IsAuthenticated() {
		handleError(w, r, goerr.Wrap(usecase.ErrUnauthenticated, "authentication required"))
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, meResponse{
		Authenticated: true,
		Requester:     requester,
	})
}
