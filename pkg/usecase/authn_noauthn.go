package usecase

import (
	"context"

	"github.com/makola-community/makola/pkg/domain/model"
)

// NoAuthnUseCase authenticates every request as a fixed requester (for development/testing)
type NoAuthnUseCase struct {
	requester model.Requester
}

var _ AuthUseCaseInterface = &NoAuthnUseCase{}

// NewNoAuthnUseCase creates a new NoAuthnUseCase instance with specified requester
func NewNoAuthnUseCase(requester model.Requester) *NoAuthnUseCase {
	return &NoAuthnUseCase{
		requester: requester,
	}
}

// Authenticate ignores the token and returns the configured requester
func (uc *NoAuthnUseCase) Authenticate(ctx context.Context, token string) (model.Requester, error) {
	return uc.requester, nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
