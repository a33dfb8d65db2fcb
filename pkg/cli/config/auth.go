package config

import (
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/usecase"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Auth holds the authentication flags
type Auth struct {
	jwtSecret string
	jwtIssuer string
	noAuth    string
}

// Flags returns CLI flags for authentication
func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HMAC secret used to verify HS256 bearer tokens",
			Category:    "Auth",
			Sources:     cli.EnvVars("MAKOLA_JWT_SECRET"),
			Destination: &x.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "jwt-issuer",
			Usage:       "Expected iss claim of bearer tokens",
			Category:    "Auth",
			Sources:     cli.EnvVars("MAKOLA_JWT_ISSUER"),
			Destination: &x.jwtIssuer,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Treat every request as <user-id>:<role>[:<department>] (development only)",
			Category:    "Auth",
			Sources:     cli.EnvVars("MAKOLA_NO_AUTH"),
			Destination: &x.noAuth,
		},
	}
}

// LogValue hides the secret
func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt-secret.len", len(x.jwtSecret)),
		slog.String("jwt-issuer", x.jwtIssuer),
		slog.String("no-auth", x.noAuth),
	)
}

// IsNoAuthMode returns true if no-auth mode is enabled
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuth != ""
}

// Configure returns the NoAuthn use case when --no-auth is set, otherwise a
// JWT verifier. One of the two must be configured.
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if x.noAuth != "" {
		requester, err := ParseNoAuthRequester(x.noAuth)
		if err != nil {
			return nil, err
		}
		if x.jwtSecret != "" {
			logging.Default().Warn("--no-auth is set, ignoring --jwt-secret")
		}
		logging.Default().Warn("Authentication is disabled",
			"user_id", requester.ID,
			"role", requester.Role,
			"department", requester.Department)
		return usecase.NewNoAuthnUseCase(requester), nil
	}

	if x.jwtSecret == "" {
		return nil, goerr.Wrap(ErrInvalidFlag, "authentication is required: set --jwt-secret, or use --no-auth for development",
			goerr.V(FlagKey, "jwt-secret"))
	}

	var opts []usecase.AuthOption
	if x.jwtIssuer != "" {
		opts = append(opts, usecase.WithIssuer(x.jwtIssuer))
	}
	return usecase.NewAuthUseCase([]byte(x.jwtSecret), opts...), nil
}

// ParseNoAuthRequester parses "<user-id>:<role>[:<department>]"
func ParseNoAuthRequester(v string) (model.Requester, error) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return model.Requester{}, goerr.Wrap(ErrInvalidFlag, "no-auth must be <user-id>:<role>[:<department>]",
			goerr.V(FlagKey, "no-auth"), goerr.V("value", v))
	}

	role, err := types.ParseRole(parts[1])
	if err != nil {
		return model.Requester{}, goerr.Wrap(ErrInvalidFlag, "invalid role in no-auth",
			goerr.V(FlagKey, "no-auth"), goerr.V("role", parts[1]))
	}

	requester := model.Requester{
		ID:   types.UserID(parts[0]),
		Role: role,
		Name: parts[0],
	}
	if len(parts) == 3 {
		requester.Department = types.DepartmentID(parts[2])
	}
	if role == types.RoleDepartmentOfficer && requester.Department == "" {
		return model.Requester{}, goerr.Wrap(ErrInvalidFlag, "department_officer requires a department in no-auth",
			goerr.V(FlagKey, "no-auth"), goerr.V("value", v))
	}
	return requester, nil
}
