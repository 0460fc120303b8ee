package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	"github.com/ivankudzin/frameup/internal/domain/model"
	pgrepo "github.com/ivankudzin/frameup/internal/repo/postgres"
)

type UserStore interface {
	Get(ctx context.Context, id int64) (model.User, error)
}

// Service validates access tokens and resolves the caller's current
// account state. Role and ban state come from the database, not the
// token, so revocations take effect on the next request.
type Service struct {
	jwt    *JWTManager
	users  UserStore
	logger *zap.Logger
}

func NewService(jwtManager *JWTManager, users UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{jwt: jwtManager, users: users, logger: logger}
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (Identity, error) {
	if s.jwt == nil || s.users == nil {
		return Identity{}, fmt.Errorf("auth service dependencies are not configured")
	}

	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, fmt.Errorf("get user: %w", err)
	}

	banned := user.AccountStatus == enums.AccountStatusBannedTemporary ||
		user.AccountStatus == enums.AccountStatusBannedPermanent

	return Identity{
		UserID:   user.ID,
		Role:     string(user.Role),
		IsBanned: banned,
	}, nil
}
