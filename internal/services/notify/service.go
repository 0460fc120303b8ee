package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/frameup/internal/domain/model"
)

type NotificationStore interface {
	Create(ctx context.Context, n model.Notification) error
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Service is the outbound side-effect channel for the moderation core.
// Every method is fire-and-forget from the caller's point of view:
// delivery failure is logged here and never propagated, because by the
// time a notification is sent the state transition has already
// committed.
type Service struct {
	store  NotificationStore
	email  EmailSender
	logger *zap.Logger
}

func NewService(store NotificationStore, email EmailSender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:  store,
		email:  email,
		logger: logger,
	}
}

// Push delivers an in-app notification.
func (s *Service) Push(ctx context.Context, n model.Notification) {
	if s.store == nil {
		s.logger.Warn("notification store is not configured, dropping notification",
			zap.Int64("user_id", n.UserID), zap.String("type", n.Type))
		return
	}

	if err := s.store.Create(ctx, n); err != nil {
		s.logger.Error("create in-app notification failed",
			zap.Error(err), zap.Int64("user_id", n.UserID), zap.String("type", n.Type))
	}
}

// Email delivers out-of-band mail, the only channel that reaches a
// banned account.
func (s *Service) Email(ctx context.Context, to, subject, html string) {
	if s.email == nil {
		s.logger.Warn("email sender is not configured, dropping email", zap.String("subject", subject))
		return
	}
	if strings.TrimSpace(to) == "" {
		s.logger.Warn("email recipient is empty, dropping email", zap.String("subject", subject))
		return
	}

	if err := s.email.Send(ctx, to, subject, html); err != nil {
		s.logger.Error("send email failed", zap.Error(err), zap.String("subject", subject))
	}
}

func ModerationActionURL(targetType, targetID string) string {
	return fmt.Sprintf("/moderation/%s/%s", targetType, targetID)
}
