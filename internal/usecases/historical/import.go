package historical

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/pkg/utils"
)

type ImportInput struct {
	// TableName é a tabela temporária. Vazio gera <dataset>_import_<id>.
	TableName string
	FileName  string
	File      io.Reader
}

type ImportResult struct {
	TableName    string `json:"table_name"`
	TempTable    string `json:"temp_table"`
	RowsImported int64  `json:"rows_imported"`
}

func (s *Service) Import(ctx context.Context, input ImportInput) (*ImportResult, error) {
	tableName := strings.TrimSpace(input.TableName)
	if tableName == "" {
		id, err := utils.GenerateID()
		if err != nil {
			return nil, err
		}
		tableName = fmt.Sprintf("%s_import_%s", s.dataset.Name, id)
	}
	if !domain.ValidTableName(tableName) {
		return nil, invalid("table_name", "nombre de tabla inválido %q, use solo letras, números y '_'", tableName)
	}
	if input.File == nil {
		return nil, invalid("file", "seleccione un archivo .xlsx")
	}
	if input.FileName != "" && !strings.EqualFold(filepath.Ext(input.FileName), ".xlsx") {
		return nil, invalid("file", "el archivo %q no es un .xlsx", input.FileName)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var schema []domain.Column
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		schema, err = s.repo.Columns(ctx, s.dataset.Table)
		return err
	})
	if err != nil {
		return nil, err
	}

	sheet, err := readSheet(input.File)
	if err != nil {
		return nil, err
	}

	data, rowCount, err := s.sheetToCSV(schema, sheet)
	if err != nil {
		return nil, err
	}

	temp := s.dataset.Table.Sibling(tableName)
	exists, err := s.repo.TableExists(ctx, temp)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid("table_name", "la tabla %s ya existe, elija otro nombre", temp)
	}

	defer s.dropTemp(ctx, temp)

	if err := s.repo.LoadCSV(ctx, temp, schema, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	inserted, err := s.repo.Append(ctx, temp, s.dataset.Table, s.dataset.MonthColumn, nil)
	if err != nil {
		return nil, err
	}

	s.logger(ctx).Infof("%d linhas da planilha (%d lidas) importadas em %s via %s", inserted, rowCount, s.dataset.Table, temp)
	s.auditor.Record(ctx, &domain.AuditEntry{
		Dataset:      s.dataset.Name,
		Operation:    domain.AuditImport,
		Months:       []string{},
		SourceTable:  temp.String(),
		TargetTable:  s.dataset.Table.String(),
		AffectedRows: inserted,
	})

	return &ImportResult{
		TableName:    s.dataset.Table.String(),
		TempTable:    temp.String(),
		RowsImported: inserted,
	}, nil
}

// dropTemp remove a tabela temporária mesmo que a requisição tenha expirado
func (s *Service) dropTemp(ctx context.Context, temp domain.TableRef) {
	dropCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.repo.DropTable(dropCtx, temp); err != nil {
		s.logger(ctx).WithError(err).Errorf("Não foi possível remover a tabela temporária %s", temp)
	}
}

func readSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, invalid("file", "no se pudo leer el archivo .xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, invalid("file", "la planilla no tiene hojas")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, invalid("file", "no se pudo leer la hoja %q", sheets[0])
	}
	if len(rows) == 0 {
		return nil, invalid("file", "la hoja %q está vacía", sheets[0])
	}

	return rows, nil
}

// sheetToCSV confere o cabeçalho com o schema e converte as linhas para o CSV
// do load job, com as colunas na ordem do schema
func (s *Service) sheetToCSV(schema []domain.Column, sheet [][]string) ([]byte, int, error) {
	positions, err := headerPositions(schema, sheet[0])
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(schema))
	for i, column := range schema {
		header[i] = column.Name
	}
	if err := w.Write(header); err != nil {
		return nil, 0, err
	}

	count := 0
	for i, row := range sheet[1:] {
		if blankRow(row) {
			continue
		}

		record := make([]string, len(schema))
		for j, column := range schema {
			raw := ""
			if pos := positions[j]; pos < len(row) {
				raw = strings.TrimSpace(row[pos])
			}

			value, err := s.coerce(column, raw)
			if err != nil {
				return nil, 0, &ValidationError{
					Field:   "file",
					Message: fmt.Sprintf("fila %d, columna %s: %v", i+2, column.Name, err),
				}
			}
			record[j] = value
		}

		if err := w.Write(record); err != nil {
			return nil, 0, err
		}
		count++
	}

	if count == 0 {
		return nil, 0, invalid("file", "la planilla no tiene filas de datos")
	}

	w.Flush()
	return buf.Bytes(), count, w.Error()
}

func headerPositions(schema []domain.Column, header []string) ([]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		index[name] = i
	}

	for _, column := range schema {
		if column.Repeated || column.Type == "RECORD" || column.Type == "STRUCT" {
			return nil, invalid("file", "la columna %s es anidada o repetida y no se puede importar desde una planilla", column.Name)
		}
	}

	var missing, extra []string
	positions := make([]int, len(schema))
	known := make(map[string]bool, len(schema))
	for i, column := range schema {
		known[column.Name] = true
		pos, ok := index[column.Name]
		if !ok {
			missing = append(missing, column.Name)
			continue
		}
		positions[i] = pos
	}
	for name := range index {
		if !known[name] {
			extra = append(extra, name)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		return nil, &ValidationError{
			Field:   "file",
			Message: "las columnas de la planilla no coinciden con la tabla",
			Details: map[string][]string{"missing": missing, "extra": extra},
		}
	}

	return positions, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// coerce valida o valor da célula contra o tipo da coluna. Vazio vira NULL.
func (s *Service) coerce(column domain.Column, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	if column.Name == s.dataset.MonthColumn {
		normalized, err := s.dataset.Format.Normalize([]string{raw})
		if err != nil {
			return "", fmt.Errorf("mes inválido %q", raw)
		}
		return normalized[0], nil
	}

	switch column.Type {
	case "INTEGER", "INT64":
		if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return raw, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f != float64(int64(f)) {
			return "", fmt.Errorf("%q no es un número entero", raw)
		}
		return strconv.FormatInt(int64(f), 10), nil

	case "FLOAT", "FLOAT64", "NUMERIC", "BIGNUMERIC":
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return "", fmt.Errorf("%q no es un número", raw)
		}
		return raw, nil

	case "BOOLEAN", "BOOL":
		switch strings.ToLower(raw) {
		case "true", "t", "1":
			return "true", nil
		case "false", "f", "0":
			return "false", nil
		}
		return "", fmt.Errorf("%q no es un booleano", raw)

	case "DATE":
		return spreadsheetTime(raw, "2006-01-02")

	case "DATETIME", "TIMESTAMP":
		return spreadsheetTime(raw, "2006-01-02 15:04:05")

	default:
		return raw, nil
	}
}

// spreadsheetTime aceita a data em texto ou o número serial do Excel
func spreadsheetTime(raw, layout string) (string, error) {
	for _, candidate := range []string{layout, "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(candidate, raw); err == nil {
			return t.Format(layout), nil
		}
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", fmt.Errorf("%q no es una fecha", raw)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", fmt.Errorf("%q no es una fecha", raw)
	}

	return t.Format(layout), nil
}
