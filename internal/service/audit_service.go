package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// AuditService appends to the audit trail. Writes are attempted
// synchronously before an operation is considered complete, but a failed
// audit write never fails the primary operation: it is logged and dropped.
// Ticket-state correctness is strict; audit completeness is best-effort.
type AuditService struct {
	entries repository.AuditRepository
	logger  *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(entries repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{entries: entries, logger: logger}
}

// Record appends an audit entry for a mutating action.
func (s *AuditService) Record(ctx context.Context, actorID, action, detail string) {
	if s == nil || s.entries == nil {
		return
	}
	entry := &domain.AuditEntry{
		ActorID: actorID,
		Action:  action,
		Detail:  detail,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed",
			zap.Error(err),
			zap.String("actor_id", actorID),
			zap.String("action", action))
	}
}

// List returns recent audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	return s.entries.List(ctx, limit, offset)
}
