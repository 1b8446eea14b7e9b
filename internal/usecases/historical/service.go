package historical

import (
	"context"
	"strings"
	"time"

	"github.com/vfg2006/historico-admin-api/infrastructure/database/bigquery"
	"github.com/vfg2006/historico-admin-api/infrastructure/repository"
	"github.com/vfg2006/historico-admin-api/internal/config"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/months"
	"github.com/vfg2006/historico-admin-api/internal/usecases/auditing"
	"github.com/vfg2006/historico-admin-api/pkg/log"
)

// MaxExportMonths é o limite de meses por exportação
const MaxExportMonths = 3

type DatasetManager interface {
	Dataset() domain.Dataset
	ListMonths(ctx context.Context, order months.Order) ([]string, error)
	DeleteMonths(ctx context.Context, labels []string) (*DeleteResult, error)
	Append(ctx context.Context, input AppendInput) (*AppendResult, error)
	Export(ctx context.Context, input ExportInput, write ExportWriter) error
	TableInfo(ctx context.Context, table string) (*domain.TableInfo, error)
	TablePrefix() string
	Import(ctx context.Context, input ImportInput) (*ImportResult, error)
}

type DeleteResult struct {
	Deleted int64    `json:"deleted"`
	Months  []string `json:"months"`
}

type AppendInput struct {
	SourceTable      string
	DestinationTable string
	Months           []string
	FullReload       bool
}

type AppendResult struct {
	Inserted         int64    `json:"inserted"`
	SourceTable      string   `json:"source_table"`
	DestinationTable string   `json:"destination_table"`
	Months           []string `json:"months"`
}

type ExportInput struct {
	Months            []string
	Columns           []string
	IncludeAllColumns bool
}

// ExportWriter recebe o cabeçalho e o cursor das linhas, ainda dentro do
// prazo da consulta
type ExportWriter func(header []string, rows repository.Rows) error

type Service struct {
	dataset domain.Dataset
	repo    repository.DatasetRepository
	auditor auditing.Auditor
	timeout time.Duration
	retries int
}

func NewService(dataset domain.Dataset, repo repository.DatasetRepository, auditor auditing.Auditor, cfg *config.Config) DatasetManager {
	if auditor == nil {
		auditor = auditing.Nop{}
	}

	return &Service{
		dataset: dataset,
		repo:    repo,
		auditor: auditor,
		timeout: cfg.App.QueryTimeout,
		retries: cfg.BigQuery.ReadRetries,
	}
}

func (s *Service) Dataset() domain.Dataset {
	return s.dataset
}

func (s *Service) logger(ctx context.Context) log.Logger {
	return log.ForContext(ctx).WithField("dataset", s.dataset.Name)
}

// read executa uma leitura com prazo e novas tentativas em erros transitórios
func (s *Service) read(ctx context.Context, fn func(ctx context.Context) error) error {
	return bigquery.RetryRead(ctx, s.retries, fn)
}

func (s *Service) normalize(labels []string) ([]string, error) {
	normalized, err := s.dataset.Format.Normalize(labels)
	if err != nil {
		return nil, monthsError(s.dataset.Format, err)
	}
	return normalized, nil
}

func (s *Service) ListMonths(ctx context.Context, order months.Order) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var labels []string
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		labels, err = s.repo.DistinctMonths(ctx, s.dataset.Table, s.dataset.MonthColumn)
		return err
	})
	if err != nil {
		return nil, err
	}

	sorted, err := s.dataset.Format.Sort(labels, order)
	if err != nil {
		s.logger(ctx).WithError(err).Errorf("Coluna %s de %s contém um mês fora do formato %s", s.dataset.MonthColumn, s.dataset.Table, s.dataset.Format.StoredLayout())
		return nil, err
	}

	return sorted, nil
}

func (s *Service) DeleteMonths(ctx context.Context, labels []string) (*DeleteResult, error) {
	selected, err := s.normalize(labels)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, invalid("months", "seleccione al menos un mes para eliminar")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	deleted, err := s.repo.DeleteMonths(ctx, s.dataset.Table, s.dataset.MonthColumn, selected)
	if err != nil {
		return nil, err
	}

	s.logger(ctx).Infof("%d linhas removidas de %s para os meses %s", deleted, s.dataset.Table, strings.Join(selected, ", "))
	s.auditor.Record(ctx, &domain.AuditEntry{
		Dataset:      s.dataset.Name,
		Operation:    domain.AuditDelete,
		Months:       selected,
		TargetTable:  s.dataset.Table.String(),
		AffectedRows: deleted,
	})

	return &DeleteResult{Deleted: deleted, Months: selected}, nil
}

func (s *Service) Append(ctx context.Context, input AppendInput) (*AppendResult, error) {
	if strings.TrimSpace(input.SourceTable) == "" {
		return nil, invalid("source_table", "indique la tabla de origen (project.dataset.table)")
	}
	source, err := domain.ParseTableRef(input.SourceTable)
	if err != nil {
		return nil, invalid("source_table", "tabla de origen inválida %q, use project.dataset.table", input.SourceTable)
	}

	destination := s.dataset.Table
	if strings.TrimSpace(input.DestinationTable) != "" {
		if destination, err = domain.ParseTableRef(input.DestinationTable); err != nil {
			return nil, invalid("destination_table", "tabla de destino inválida %q, use project.dataset.table", input.DestinationTable)
		}
	}
	if source == destination {
		return nil, invalid("source_table", "la tabla de origen y la de destino son la misma")
	}

	selected, err := s.normalize(input.Months)
	if err != nil {
		return nil, err
	}
	switch {
	case len(selected) == 0 && !input.FullReload:
		return nil, invalid("months", "seleccione al menos un mes o marque la carga completa")
	case len(selected) > 0 && input.FullReload:
		return nil, invalid("full_reload", "la carga completa no admite meses seleccionados")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	inserted, err := s.repo.Append(ctx, source, destination, s.dataset.MonthColumn, selected)
	if err != nil {
		return nil, err
	}

	s.logger(ctx).Infof("%d linhas copiadas de %s para %s", inserted, source, destination)
	s.auditor.Record(ctx, &domain.AuditEntry{
		Dataset:      s.dataset.Name,
		Operation:    domain.AuditAppend,
		Months:       selected,
		SourceTable:  source.String(),
		TargetTable:  destination.String(),
		AffectedRows: inserted,
	})

	return &AppendResult{
		Inserted:         inserted,
		SourceTable:      source.String(),
		DestinationTable: destination.String(),
		Months:           selected,
	}, nil
}

func (s *Service) Export(ctx context.Context, input ExportInput, write ExportWriter) error {
	// o limite vale para o que foi enviado, antes de deduplicar
	if len(input.Months) > MaxExportMonths {
		return invalid("months", "puede exportar como máximo %d meses por vez, recibidos %d", MaxExportMonths, len(input.Months))
	}
	selected, err := s.normalize(input.Months)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return invalid("months", "seleccione al menos un mes para exportar")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var schema []domain.Column
	err = s.read(ctx, func(ctx context.Context) error {
		var err error
		schema, err = s.repo.Columns(ctx, s.dataset.Table)
		return err
	})
	if err != nil {
		return err
	}

	header, err := selectColumns(schema, input)
	if err != nil {
		return err
	}

	var rows repository.Rows
	err = s.read(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.repo.Export(ctx, s.dataset.Table, s.dataset.MonthColumn, header, selected)
		return err
	})
	if err != nil {
		return err
	}

	s.logger(ctx).Infof("Exportando %d colunas de %s para os meses %s", len(header), s.dataset.Table, strings.Join(selected, ", "))
	return write(header, rows)
}

// selectColumns devolve as colunas pedidas na ordem pedida, com os nomes do
// schema. Sem pedido (ou com include_all_columns) devolve o schema inteiro.
func selectColumns(schema []domain.Column, input ExportInput) ([]string, error) {
	if input.IncludeAllColumns || len(input.Columns) == 0 {
		header := make([]string, len(schema))
		for i, column := range schema {
			header[i] = column.Name
		}
		return header, nil
	}

	byName := make(map[string]string, len(schema))
	for _, column := range schema {
		byName[strings.ToLower(column.Name)] = column.Name
	}

	var unknown []string
	seen := make(map[string]bool)
	header := make([]string, 0, len(input.Columns))
	for _, requested := range input.Columns {
		name, ok := byName[strings.ToLower(strings.TrimSpace(requested))]
		if !ok {
			unknown = append(unknown, requested)
			continue
		}
		if !seen[name] {
			seen[name] = true
			header = append(header, name)
		}
	}

	if len(unknown) > 0 {
		return nil, &ValidationError{
			Field:   "columns",
			Message: "columnas inexistentes: " + strings.Join(unknown, ", "),
			Details: unknown,
		}
	}

	return header, nil
}

func (s *Service) TableInfo(ctx context.Context, table string) (*domain.TableInfo, error) {
	ref, err := domain.ParseTableRef(table)
	if err != nil {
		return nil, invalid("table", "tabla inválida %q, use project.dataset.table", table)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var count int64
	err = s.read(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.repo.RowCount(ctx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.TableInfo{Table: ref.String(), RowCount: count}, nil
}

func (s *Service) TablePrefix() string {
	return s.dataset.Table.Prefix()
}
