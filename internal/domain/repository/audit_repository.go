package repository

import (
	"context"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// AuditRepository stores ledger audit events
type AuditRepository interface {
	Create(ctx context.Context, event *entity.LedgerAuditEvent) error
	List(ctx context.Context, params *pagination.PaginationParams, kind *enum.AuditKind) ([]entity.LedgerAuditEvent, int64, error)
}
