package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/internal/infrastructure/telemetry"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// AuditService records ledger outcomes that are skipped rather than failed
type AuditService struct {
	repo    repository.AuditRepository
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo repository.AuditRepository, metrics *telemetry.LedgerMetrics, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// AuditEntry describes one audited outcome
type AuditEntry struct {
	Kind        enum.AuditKind
	SubjectType string
	SubjectID   string
	Message     string
	Details     map[string]any
}

// Record stores entry and counts it by kind. Storage failures are logged and
// never returned to the ledger call that produced the entry.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	s.logger.Warn(entry.Message,
		zap.String("audit_kind", string(entry.Kind)),
		zap.String("subject_type", entry.SubjectType),
		zap.String("subject_id", entry.SubjectID),
		zap.Any("details", entry.Details))
	s.metrics.RecordAuditEvent(ctx, string(entry.Kind))

	row := &entity.LedgerAuditEvent{
		Kind:        entry.Kind,
		SubjectType: entry.SubjectType,
		SubjectID:   entry.SubjectID,
		Message:     entry.Message,
		Details:     entry.Details,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to store audit event", zap.String("audit_kind", string(entry.Kind)), zap.Error(err))
	}
}

// List returns audit events newest first, optionally filtered by kind
func (s *AuditService) List(ctx context.Context, params *pagination.PaginationParams, kind *enum.AuditKind) (*pagination.PaginatedResult[entity.LedgerAuditEvent], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	events, total, err := s.repo.List(ctx, params, kind)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(events, params, total), nil
}
