// Package memory implementa o DatasetRepository sobre tabelas em memória.
// Serve de warehouse de teste para os serviços e para a API.
package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/vfg2006/historico-admin-api/infrastructure/database/bigquery"
	"github.com/vfg2006/historico-admin-api/infrastructure/repository"
	"github.com/vfg2006/historico-admin-api/internal/domain"
)

type Table struct {
	Columns []domain.Column
	Rows    [][]bq.Value
}

type DatasetRepository struct {
	mu      sync.Mutex
	tables  map[domain.TableRef]*Table
	failure error
	calls   int
}

var _ repository.DatasetRepository = (*DatasetRepository)(nil)

func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{tables: make(map[domain.TableRef]*Table)}
}

// PutTable cria (ou substitui) uma tabela
func (r *DatasetRepository) PutTable(ref domain.TableRef, columns []domain.Column, rows [][]bq.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables[ref] = &Table{Columns: columns, Rows: copyRows(rows)}
}

// Rows retorna uma cópia das linhas da tabela
func (r *DatasetRepository) Rows(ref domain.TableRef) [][]bq.Value {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[ref]
	if !ok {
		return nil
	}
	return copyRows(t.Rows)
}

func (r *DatasetRepository) HasTable(ref domain.TableRef) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.tables[ref]
	return ok
}

// FailNext faz a próxima chamada devolver err
func (r *DatasetRepository) FailNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failure = err
}

// Calls conta as chamadas recebidas, inclusive as que falharam
func (r *DatasetRepository) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

func (r *DatasetRepository) begin(ctx context.Context) error {
	r.calls++
	if err := ctx.Err(); err != nil {
		return &bigquery.Error{Op: "memory", Timeout: err == context.DeadlineExceeded, Err: err}
	}
	if r.failure != nil {
		err := r.failure
		r.failure = nil
		return err
	}
	return nil
}

func (r *DatasetRepository) table(ref domain.TableRef) (*Table, error) {
	t, ok := r.tables[ref]
	if !ok {
		return nil, &bigquery.Error{Op: "memory", Table: ref.String(), Code: http.StatusNotFound, Reason: "notFound"}
	}
	return t, nil
}

func (t *Table) index(column string) (int, error) {
	for i, c := range t.Columns {
		if c.Name == column {
			return i, nil
		}
	}
	return 0, &bigquery.Error{Op: "memory", Reason: "invalidQuery", Err: fmt.Errorf("coluna %s não existe", column)}
}

func (r *DatasetRepository) DistinctMonths(ctx context.Context, ref domain.TableRef, monthColumn string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return nil, err
	}
	t, err := r.table(ref)
	if err != nil {
		return nil, err
	}
	idx, err := t.index(monthColumn)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var labels []string
	for _, row := range t.Rows {
		if row[idx] == nil {
			continue
		}
		label := fmt.Sprint(row[idx])
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}

	return labels, nil
}

func matcher(months []string) func(bq.Value) bool {
	set := make(map[string]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return func(v bq.Value) bool {
		return v != nil && set[fmt.Sprint(v)]
	}
}

func (r *DatasetRepository) DeleteMonths(ctx context.Context, ref domain.TableRef, monthColumn string, months []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return 0, err
	}
	t, err := r.table(ref)
	if err != nil {
		return 0, err
	}
	idx, err := t.index(monthColumn)
	if err != nil {
		return 0, err
	}

	match := matcher(months)
	kept := t.Rows[:0]
	var deleted int64
	for _, row := range t.Rows {
		if match(row[idx]) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept

	return deleted, nil
}

func (r *DatasetRepository) Append(ctx context.Context, source, destination domain.TableRef, monthColumn string, months []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return 0, err
	}
	src, err := r.table(source)
	if err != nil {
		return 0, err
	}
	dst, err := r.table(destination)
	if err != nil {
		return 0, err
	}
	if len(src.Columns) != len(dst.Columns) {
		return 0, &bigquery.Error{Op: "memory", Reason: "invalidQuery", Err: fmt.Errorf("%s e %s têm schemas diferentes", source, destination)}
	}

	match := func(bq.Value) bool { return true }
	idx := 0
	if len(months) > 0 {
		if idx, err = src.index(monthColumn); err != nil {
			return 0, err
		}
		match = matcher(months)
	}

	var selected [][]bq.Value
	for _, row := range src.Rows {
		if match(row[idx]) {
			selected = append(selected, row)
		}
	}
	dst.Rows = append(dst.Rows, copyRows(selected)...)

	return int64(len(selected)), nil
}

func (r *DatasetRepository) Export(ctx context.Context, ref domain.TableRef, monthColumn string, columns []string, months []string) (repository.Rows, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return nil, err
	}
	t, err := r.table(ref)
	if err != nil {
		return nil, err
	}
	monthIdx, err := t.index(monthColumn)
	if err != nil {
		return nil, err
	}

	indexes := make([]int, len(columns))
	for i, column := range columns {
		if indexes[i], err = t.index(column); err != nil {
			return nil, err
		}
	}

	match := matcher(months)
	var selected [][]bq.Value
	for _, row := range t.Rows {
		if !match(row[monthIdx]) {
			continue
		}
		projected := make([]bq.Value, len(indexes))
		for i, idx := range indexes {
			projected[i] = row[idx]
		}
		selected = append(selected, append(projected, row[monthIdx]))
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return fmt.Sprint(selected[i][len(indexes)]) < fmt.Sprint(selected[j][len(indexes)])
	})
	for i := range selected {
		selected[i] = selected[i][:len(indexes)]
	}

	return &rows{rows: selected}, nil
}

func (r *DatasetRepository) Columns(ctx context.Context, ref domain.TableRef) ([]domain.Column, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return nil, err
	}
	t, err := r.table(ref)
	if err != nil {
		return nil, err
	}

	return append([]domain.Column(nil), t.Columns...), nil
}

func (r *DatasetRepository) RowCount(ctx context.Context, ref domain.TableRef) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return 0, err
	}
	t, err := r.table(ref)
	if err != nil {
		return 0, err
	}

	return int64(len(t.Rows)), nil
}

func (r *DatasetRepository) TableExists(ctx context.Context, ref domain.TableRef) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return false, err
	}
	_, ok := r.tables[ref]
	return ok, nil
}

// LoadCSV interpreta o CSV com as mesmas regras de tipo de um load job
func (r *DatasetRepository) LoadCSV(ctx context.Context, ref domain.TableRef, columns []domain.Column, reader io.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return err
	}

	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return &bigquery.Error{Op: "memory", Table: ref.String(), Reason: "invalid", Err: err}
	}

	var loaded [][]bq.Value
	for i, record := range records {
		if i == 0 {
			continue
		}
		if len(record) != len(columns) {
			return &bigquery.Error{Op: "memory", Table: ref.String(), Reason: "invalid", Err: fmt.Errorf("linha %d com %d campos", i+1, len(record))}
		}

		row := make([]bq.Value, len(columns))
		for j, field := range record {
			if row[j], err = parseField(columns[j].Type, field); err != nil {
				return &bigquery.Error{Op: "memory", Table: ref.String(), Reason: "invalid", Err: err}
			}
		}
		loaded = append(loaded, row)
	}

	r.tables[ref] = &Table{Columns: append([]domain.Column(nil), columns...), Rows: loaded}
	return nil
}

func parseField(fieldType, field string) (bq.Value, error) {
	if field == "" {
		return nil, nil
	}

	switch strings.ToUpper(fieldType) {
	case "INTEGER", "INT64":
		return strconv.ParseInt(field, 10, 64)
	case "FLOAT", "FLOAT64":
		return strconv.ParseFloat(field, 64)
	case "BOOLEAN", "BOOL":
		return strconv.ParseBool(field)
	default:
		return field, nil
	}
}

func (r *DatasetRepository) DropTable(ctx context.Context, ref domain.TableRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.begin(ctx); err != nil {
		return err
	}
	delete(r.tables, ref)
	return nil
}

type rows struct {
	rows [][]bq.Value
	next int
}

func (r *rows) Next() ([]bq.Value, error) {
	if r.next >= len(r.rows) {
		return nil, iterator.Done
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}

func copyRows(src [][]bq.Value) [][]bq.Value {
	out := make([][]bq.Value, len(src))
	for i, row := range src {
		out[i] = append([]bq.Value(nil), row...)
	}
	return out
}
