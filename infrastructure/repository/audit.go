package repository

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vfg2006/historico-admin-api/infrastructure/database/postgres"
	"github.com/vfg2006/historico-admin-api/internal/domain"
)

//go:generate mockgen -source=audit.go -destination=mocks/audit.go -package=mocks

const auditTable = "operation_audit"

type AuditRepository interface {
	SaveAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
	ListAuditEntries(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

type auditRepository struct {
	conn postgres.Queryer
}

func NewAuditRepository(conn postgres.Queryer) AuditRepository {
	return &auditRepository{
		conn: conn,
	}
}

func (r *auditRepository) SaveAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	insertSQL, args, err := squirrel.
		Insert(auditTable).
		Columns("id", "dataset", "operation", "months", "source_table", "target_table", "affected_rows", "correlation_id", "created_at").
		Values(
			entry.ID,
			string(entry.Dataset),
			string(entry.Operation),
			pq.Array(entry.Months),
			nullString(entry.SourceTable),
			entry.TargetTable,
			entry.AffectedRows,
			nullString(entry.CorrelationID),
			entry.CreatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.conn.ExecContext(ctx, insertSQL, args...); err != nil {
		return errors.Wrap(err, "gravando auditoria")
	}

	return nil
}

func (r *auditRepository) ListAuditEntries(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	listSQL, args, err := squirrel.
		Select("id", "dataset", "operation", "months", "source_table", "target_table", "affected_rows", "correlation_id", "created_at").
		From(auditTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listando auditoria")
	}
	defer rows.Close()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		var entry domain.AuditEntry
		var dataset, operation string
		var source, correlation sql.NullString

		err := rows.Scan(
			&entry.ID,
			&dataset,
			&operation,
			pq.Array(&entry.Months),
			&source,
			&entry.TargetTable,
			&entry.AffectedRows,
			&correlation,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "lendo auditoria")
		}

		entry.Dataset = domain.DatasetName(dataset)
		entry.Operation = domain.AuditOperation(operation)
		entry.SourceTable = source.String
		entry.CorrelationID = correlation.String
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
