//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/historico-admin-api/infrastructure/database/postgres"
	"github.com/vfg2006/historico-admin-api/infrastructure/migration"
	"github.com/vfg2006/historico-admin-api/internal/config"
	"github.com/vfg2006/historico-admin-api/internal/domain"
)

func TestAuditRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("AUDIT_TEST_DSN")
	if dsn == "" {
		t.Skip("AUDIT_TEST_DSN não configurado")
	}

	cfg := config.Database{Driver: "postgres", DSN: dsn}
	require.NoError(t, migration.Up(cfg))

	ctx := context.Background()
	conn, err := postgres.NewConnection(ctx, cfg)
	require.NoError(t, err)
	defer conn.Close()

	repo := NewAuditRepository(conn)

	entry := &domain.AuditEntry{
		ID:            uuid.NewString(),
		Dataset:       domain.DatasetAdMedia,
		Operation:     domain.AuditDelete,
		Months:        []string{"2024 01 Ene", "2024 02 Feb"},
		TargetTable:   "proj.bayer.admedia_historico",
		AffectedRows:  10,
		CorrelationID: uuid.NewString(),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.SaveAuditEntry(ctx, entry))

	entries, err := repo.ListAuditEntries(ctx, 500)
	require.NoError(t, err)

	var found *domain.AuditEntry
	for _, e := range entries {
		if e.ID == entry.ID {
			found = e
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, entry.Months, found.Months)
	assert.Equal(t, entry.AffectedRows, found.AffectedRows)
	assert.Empty(t, found.SourceTable)
	assert.True(t, entry.CreatedAt.Equal(found.CreatedAt))
}
