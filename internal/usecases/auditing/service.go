package auditing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vfg2006/historico-admin-api/infrastructure/repository"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/pkg/log"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Auditor interface {
	// Record grava a entrada. Falhas são registradas no log e nunca propagadas.
	Record(ctx context.Context, entry *domain.AuditEntry)
	List(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) Auditor {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, entry *domain.AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.CorrelationID == "" {
		entry.CorrelationID = log.GetCorrelationID(ctx)
	}

	// a operação já foi concluída no warehouse; a auditoria não pode ser cancelada junto com a requisição
	if err := s.repo.SaveAuditEntry(context.WithoutCancel(ctx), entry); err != nil {
		log.ForContext(ctx).WithError(err).Errorf("Falha ao gravar auditoria de %s em %s", entry.Operation, entry.Dataset)
	}
}

func (s *Service) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	return s.repo.ListAuditEntries(ctx, ClampLimit(limit))
}

// ClampLimit aplica o padrão e o teto de entradas listadas
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Nop é usado quando a auditoria está desligada
type Nop struct{}

func (Nop) Record(context.Context, *domain.AuditEntry) {}

func (Nop) List(context.Context, int) ([]*domain.AuditEntry, error) {
	return []*domain.AuditEntry{}, nil
}
