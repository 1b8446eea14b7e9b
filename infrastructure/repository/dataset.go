package repository

import (
	"context"
	"fmt"
	"io"

	bq "cloud.google.com/go/bigquery"
	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"github.com/vfg2006/historico-admin-api/infrastructure/database/bigquery"
	"github.com/vfg2006/historico-admin-api/internal/domain"
)

//go:generate mockgen -source=dataset.go -destination=mocks/dataset.go -package=mocks

// Rows é o cursor de linhas de uma exportação. Next retorna iterator.Done ao final.
type Rows = bigquery.Rows

type DatasetRepository interface {
	DistinctMonths(ctx context.Context, table domain.TableRef, monthColumn string) ([]string, error)
	DeleteMonths(ctx context.Context, table domain.TableRef, monthColumn string, months []string) (int64, error)
	// Append copia as linhas de source para destination. Sem meses copia tudo.
	Append(ctx context.Context, source, destination domain.TableRef, monthColumn string, months []string) (int64, error)
	Export(ctx context.Context, table domain.TableRef, monthColumn string, columns []string, months []string) (Rows, error)
	Columns(ctx context.Context, table domain.TableRef) ([]domain.Column, error)
	RowCount(ctx context.Context, table domain.TableRef) (int64, error)
	TableExists(ctx context.Context, table domain.TableRef) (bool, error)
	// LoadCSV substitui o conteúdo da tabela pelo CSV informado (com cabeçalho)
	LoadCSV(ctx context.Context, table domain.TableRef, columns []domain.Column, r io.Reader) error
	DropTable(ctx context.Context, table domain.TableRef) error
}

type datasetRepository struct {
	conn bigquery.Conn
}

func NewDatasetRepository(conn bigquery.Conn) DatasetRepository {
	return &datasetRepository{
		conn: conn,
	}
}

func monthFilter(monthColumn string, months []string) squirrel.Sqlizer {
	return squirrel.Expr(domain.QuoteIdentifier(monthColumn)+" IN UNNEST(?)", months)
}

func (r *datasetRepository) DistinctMonths(ctx context.Context, table domain.TableRef, monthColumn string) ([]string, error) {
	column := domain.QuoteIdentifier(monthColumn)

	monthsSQL, args, err := squirrel.
		Select(column + " AS month_value").
		Distinct().
		From(table.Quoted()).
		Where(squirrel.NotEq{column: nil}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, monthsSQL, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "listando meses de %s", table)
	}

	var labels []string
	for {
		row, err := rows.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "lendo meses de %s", table)
		}

		if len(row) == 0 || row[0] == nil {
			continue
		}
		labels = append(labels, fmt.Sprint(row[0]))
	}

	return labels, nil
}

func (r *datasetRepository) DeleteMonths(ctx context.Context, table domain.TableRef, monthColumn string, months []string) (int64, error) {
	deleteSQL, args, err := squirrel.
		Delete(table.Quoted()).
		Where(monthFilter(monthColumn, months)).
		ToSql()
	if err != nil {
		return 0, err
	}

	deleted, err := r.conn.Exec(ctx, deleteSQL, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "removendo meses de %s", table)
	}

	return deleted, nil
}

func (r *datasetRepository) Append(ctx context.Context, source, destination domain.TableRef, monthColumn string, months []string) (int64, error) {
	selectBuilder := squirrel.Select("*").From(source.Quoted())
	if len(months) > 0 {
		selectBuilder = selectBuilder.Where(monthFilter(monthColumn, months))
	}

	appendSQL, args, err := squirrel.
		Insert(destination.Quoted()).
		Select(selectBuilder).
		ToSql()
	if err != nil {
		return 0, err
	}

	inserted, err := r.conn.Exec(ctx, appendSQL, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "copiando %s para %s", source, destination)
	}

	return inserted, nil
}

func (r *datasetRepository) Export(ctx context.Context, table domain.TableRef, monthColumn string, columns []string, months []string) (Rows, error) {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = domain.QuoteIdentifier(column)
	}

	exportSQL, args, err := squirrel.
		Select(quoted...).
		From(table.Quoted()).
		Where(monthFilter(monthColumn, months)).
		OrderBy(domain.QuoteIdentifier(monthColumn)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, exportSQL, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "exportando %s", table)
	}

	return rows, nil
}

func (r *datasetRepository) Columns(ctx context.Context, table domain.TableRef) ([]domain.Column, error) {
	md, err := r.conn.Table(ctx, table)
	if err != nil {
		return nil, errors.Wrapf(err, "lendo schema de %s", table)
	}

	columns := make([]domain.Column, 0, len(md.Schema))
	for _, field := range md.Schema {
		columns = append(columns, domain.Column{
			Name:     field.Name,
			Type:     string(field.Type),
			Repeated: field.Repeated,
		})
	}

	return columns, nil
}

func (r *datasetRepository) RowCount(ctx context.Context, table domain.TableRef) (int64, error) {
	md, err := r.conn.Table(ctx, table)
	if err != nil {
		return 0, errors.Wrapf(err, "lendo metadados de %s", table)
	}

	return int64(md.NumRows), nil
}

func (r *datasetRepository) TableExists(ctx context.Context, table domain.TableRef) (bool, error) {
	_, err := r.conn.Table(ctx, table)
	if err != nil {
		if bigquery.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "consultando %s", table)
	}

	return true, nil
}

func (r *datasetRepository) LoadCSV(ctx context.Context, table domain.TableRef, columns []domain.Column, reader io.Reader) error {
	schema := make(bq.Schema, len(columns))
	for i, column := range columns {
		schema[i] = &bq.FieldSchema{
			Name:     column.Name,
			Type:     bq.FieldType(column.Type),
			Repeated: column.Repeated,
		}
	}

	if err := r.conn.LoadCSV(ctx, table, schema, reader); err != nil {
		return errors.Wrapf(err, "carregando CSV em %s", table)
	}

	return nil
}

func (r *datasetRepository) DropTable(ctx context.Context, table domain.TableRef) error {
	if err := r.conn.DeleteTable(ctx, table); err != nil {
		return errors.Wrapf(err, "removendo tabela %s", table)
	}

	return nil
}
