package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/events"
)

// AuditService writes an audit log line for account events.
type AuditService struct {
	logger *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{logger: logger.Named("audit")}
}

// Record writes the audit entry for event.
func (a *AuditService) Record(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventUserRegistered:
		return a.handleUserRegistered(ctx, event)
	case events.EventUserRoleChanged:
		return a.handleUserRoleChanged(ctx, event)
	default:
		return fmt.Errorf("audit: unsupported event type %q", event.Type)
	}
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event) error {
	a.logger.Info("UserRegistered",
		zap.String("event_id", event.ID),
		zap.Int64("user_id", event.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleUserRoleChanged(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Int64("user_id", event.UserID),
		zap.Any("payload", event.Payload),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.Int64("actor_id", *event.ActorID))
	}
	a.logger.Info("UserRoleChanged", fields...)
	return nil
}
