package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

// AuthUseCaseInterface resolves the requester behind a bearer token
type AuthUseCaseInterface interface {
	Authenticate(ctx context.Context, token string) (model.Requester, error)
	IsNoAuthn() bool
}

// Claim names read from the access token, in addition to "sub"
const (
	ClaimRole       = "role"
	ClaimDepartment = "department"
	ClaimName       = "name"
)

// AuthUseCase validates HS256 access tokens issued by the external auth service
type AuthUseCase struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var _ AuthUseCaseInterface = &AuthUseCase{}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithIssuer requires the token's "iss" claim to match issuer
func WithIssuer(issuer string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.issuer = issuer
	}
}

// WithAuthClock overrides the clock used to check token expiry
func WithAuthClock(now func() time.Time) AuthOption {
	return func(uc *AuthUseCase) {
		uc.now = now
	}
}

func NewAuthUseCase(secret []byte, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		secret: secret,
		now:    time.Now,
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}

// Authenticate validates the token signature, expiry and issuer, and maps
// its claims to a Requester. Unknown roles are rejected.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (model.Requester, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Requester{}, goerr.Wrap(ErrUnauthenticated, "access token is required")
	}

	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(uc.now)),
	}
	if uc.issuer != "" {
		opts = append(opts, jwt.WithIssuer(uc.issuer))
	}

	tok, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		return model.Requester{}, goerr.Wrap(ErrUnauthenticated, "invalid access token", goerr.V("reason", err.Error()))
	}

	if tok.Subject() == "" {
		return model.Requester{}, goerr.Wrap(ErrUnauthenticated, "access token has no subject")
	}

	role, err := types.ParseRole(stringClaim(tok, ClaimRole))
	if err != nil {
		return model.Requester{}, goerr.Wrap(ErrUnauthenticated, "access token has an unknown role",
			goerr.V("role", stringClaim(tok, ClaimRole)))
	}

	return model.Requester{
		ID:         types.UserID(tok.Subject()),
		Role:       role,
		Department: types.DepartmentID(stringClaim(tok, ClaimDepartment)),
		Name:       stringClaim(tok, ClaimName),
	}, nil
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

func stringClaim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
