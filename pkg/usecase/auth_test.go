package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/usecase"
)

var (
	authSecret = []byte("test-secret-for-makola-access-tokens")
	authNow    = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

type tokenSpec struct {
	subject    string
	role       string
	department string
	issuer     string
	expiresAt  time.Time
	key        []byte
}

func signToken(t *testing.T, spec tokenSpec) string {
	t.Helper()

	builder := jwt.NewBuilder().
		Subject(spec.subject).
		IssuedAt(authNow.Add(-time.Minute)).
		Expiration(spec.expiresAt)
	if spec.role != "" {
		builder = builder.Claim(usecase.ClaimRole, spec.role)
	}
	if spec.department != "" {
		builder = builder.Claim(usecase.ClaimDepartment, spec.department)
	}
	if spec.issuer != "" {
		builder = builder.Issuer(spec.issuer)
	}
	builder = builder.Claim(usecase.ClaimName, "Test User")

	tok, err := builder.Build()
	gt.NoError(t, err).Required()

	key := spec.key
	if key == nil {
		key = authSecret
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, key))
	gt.NoError(t, err).Required()
	return string(signed)
}

func TestAuthUseCase_Authenticate(t *testing.T) {
	uc := usecase.NewAuthUseCase(authSecret,
		usecase.WithIssuer("makola-auth"),
		usecase.WithAuthClock(func() time.Time { return authNow }),
	)
	valid := tokenSpec{
		subject:    "officer-7",
		role:       "department_officer",
		department: "roads",
		issuer:     "makola-auth",
		expiresAt:  authNow.Add(time.Hour),
	}

	t.Run("valid token", func(t *testing.T) {
		requester, err := uc.Authenticate(context.Background(), signToken(t, valid))
		gt.NoError(t, err).Required()
		gt.Value(t, requester).Equal(model.Requester{
			ID:         "officer-7",
			Role:       types.RoleDepartmentOfficer,
			Department: "roads",
			Name:       "Test User",
		})
	})

	tests := []struct {
		name   string
		mutate func(s *tokenSpec)
	}{
		{"expired", func(s *tokenSpec) { s.expiresAt = authNow.Add(-time.Minute) }},
		{"wrong key", func(s *tokenSpec) { s.key = []byte("another-secret-entirely") }},
		{"unknown role", func(s *tokenSpec) { s.role = "mayor" }},
		{"missing role", func(s *tokenSpec) { s.role = "" }},
		{"issuer mismatch", func(s *tokenSpec) { s.issuer = "someone-else" }},
		{"no subject", func(s *tokenSpec) { s.subject = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := valid
			tt.mutate(&spec)
			_, err := uc.Authenticate(context.Background(), signToken(t, spec))
			gt.Error(t, err).Is(usecase.ErrUnauthenticated)
		})
	}

	t.Run("empty token", func(t *testing.T) {
		_, err := uc.Authenticate(context.Background(), "  ")
		gt.Error(t, err).Is(usecase.ErrUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := uc.Authenticate(context.Background(), "not.a.jwt")
		gt.Error(t, err).Is(usecase.ErrUnauthenticated)
	})

	gt.Bool(t, uc.IsNoAuthn()).False()
}

func TestNoAuthnUseCase(t *testing.T) {
	dev := model.Requester{ID: "dev", Role: types.RoleUrbanCouncilor}
	uc := usecase.NewNoAuthnUseCase(dev)

	requester, err := uc.Authenticate(context.Background(), "")
	gt.NoError(t, err).Required()
	gt.Value(t, requester).Equal(dev)
	gt.Bool(t, uc.IsNoAuthn()).True()
}
