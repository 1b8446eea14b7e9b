package auditing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/historico-admin-api/infrastructure/repository/mocks"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/pkg/log"
)

func TestService_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAuditRepository(ctrl)
	service := NewService(repo)

	ctx, correlationID := log.WithCorrelationID(context.Background(), "")

	var saved *domain.AuditEntry
	repo.EXPECT().
		SaveAuditEntry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *domain.AuditEntry) error {
			saved = entry
			return nil
		})

	service.Record(ctx, &domain.AuditEntry{
		Dataset:      domain.DatasetInstar,
		Operation:    domain.AuditDelete,
		Months:       []string{"Enero/2024"},
		TargetTable:  "proj.bayer.instar_historico",
		AffectedRows: 10,
	})

	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, correlationID, saved.CorrelationID)
}

func TestService_Record_FailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAuditRepository(ctrl)
	service := NewService(repo)

	repo.EXPECT().SaveAuditEntry(gomock.Any(), gomock.Any()).Return(errors.New("postgres fora do ar"))

	assert.NotPanics(t, func() {
		service.Record(context.Background(), &domain.AuditEntry{Operation: domain.AuditAppend})
	})
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAuditRepository(ctrl)
	service := NewService(repo)

	entries := []*domain.AuditEntry{{ID: "1"}}
	repo.EXPECT().ListAuditEntries(gomock.Any(), DefaultLimit).Return(entries, nil)
	repo.EXPECT().ListAuditEntries(gomock.Any(), MaxLimit).Return(entries, nil)

	got, err := service.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	_, err = service.List(context.Background(), 10_000)
	require.NoError(t, err)
}

func TestNop(t *testing.T) {
	var auditor Auditor = Nop{}

	auditor.Record(context.Background(), &domain.AuditEntry{})
	entries, err := auditor.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}
