package historical

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	bq "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vfg2006/historico-admin-api/infrastructure/repository/memory"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/months"
)

var instarColumns = []domain.Column{
	{Name: "Mes_Anio", Type: "STRING"},
	{Name: "Cliente", Type: "STRING"},
	{Name: "Ventas", Type: "INTEGER"},
	{Name: "Activo", Type: "BOOLEAN"},
}

func instarRows(month string, n int) [][]bq.Value {
	rows := make([][]bq.Value, n)
	for i := range rows {
		rows[i] = []bq.Value{month, fmt.Sprintf("cliente-%d", i), int64(i), true}
	}
	return rows
}

func TestFixture_AppendFullReloadCopiesEveryRow(t *testing.T) {
	warehouse := memory.NewDatasetRepository()
	source := domain.TableRef{ProjectID: "proj", DatasetID: "stage", TableID: "instar_carga"}

	var rows [][]bq.Value
	rows = append(rows, instarRows("Enero/2024", 4)...)
	rows = append(rows, instarRows("Febrero/2024", 3)...)
	warehouse.PutTable(source, instarColumns, rows)
	warehouse.PutTable(instarDataset.Table, instarColumns, nil)

	service := NewService(instarDataset, warehouse, nil, testConfig())

	result, err := service.Append(context.Background(), AppendInput{SourceTable: source.String(), FullReload: true})
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.Inserted)
	assert.Empty(t, result.Months)
	assert.Len(t, warehouse.Rows(instarDataset.Table), 7)
}

func TestFixture_AppendSelectedMonths(t *testing.T) {
	warehouse := memory.NewDatasetRepository()
	source := domain.TableRef{ProjectID: "proj", DatasetID: "stage", TableID: "instar_carga"}

	var rows [][]bq.Value
	rows = append(rows, instarRows("Enero/2024", 4)...)
	rows = append(rows, instarRows("Febrero/2024", 3)...)
	warehouse.PutTable(source, instarColumns, rows)
	warehouse.PutTable(instarDataset.Table, instarColumns, nil)

	service := NewService(instarDataset, warehouse, nil, testConfig())

	result, err := service.Append(context.Background(), AppendInput{SourceTable: source.String(), Months: []string{"2024-02"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Inserted)

	listed, err := service.ListMonths(context.Background(), months.Ascending)
	require.NoError(t, err)
	assert.Equal(t, []string{"Febrero/2024"}, listed)
}

func TestFixture_DeleteRemovesOnlySelectedMonth(t *testing.T) {
	warehouse := memory.NewDatasetRepository()

	var rows [][]bq.Value
	rows = append(rows, instarRows("Enero/2024", 10)...)
	rows = append(rows, instarRows("Diciembre/2023", 5)...)
	warehouse.PutTable(instarDataset.Table, instarColumns, rows)

	service := NewService(instarDataset, warehouse, nil, testConfig())

	result, err := service.DeleteMonths(context.Background(), []string{"2024-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.Deleted)
	assert.Equal(t, []string{"Enero/2024"}, result.Months)

	listed, err := service.ListMonths(context.Background(), months.Ascending)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diciembre/2023"}, listed)
	assert.Len(t, warehouse.Rows(instarDataset.Table), 5)
}

func TestFixture_ListMonthsHasNoDuplicateKeys(t *testing.T) {
	warehouse := memory.NewDatasetRepository()

	var rows [][]bq.Value
	rows = append(rows, instarRows("Enero/2024", 2)...)
	rows = append(rows, instarRows("enero/2024", 2)...)
	rows = append(rows, instarRows("Marzo/2023", 1)...)
	rows = append(rows, []bq.Value{nil, "sem mês", int64(0), false})
	warehouse.PutTable(instarDataset.Table, instarColumns, rows)

	service := NewService(instarDataset, warehouse, nil, testConfig())

	listed, err := service.ListMonths(context.Background(), months.Descending)
	require.NoError(t, err)
	assert.Equal(t, []string{"Enero/2024", "Marzo/2023"}, listed)
}

func xlsxFile(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestFixture_Import(t *testing.T) {
	warehouse := memory.NewDatasetRepository()
	warehouse.PutTable(instarDataset.Table, instarColumns, instarRows("Diciembre/2023", 2))

	service := NewService(instarDataset, warehouse, nil, testConfig())

	file := xlsxFile(t,
		[]any{"Cliente", "Mes_Anio", "Activo", "Ventas"},
		[]any{"acme", "2024-01", "t", 10},
		[]any{"", "", "", ""},
		[]any{"globex", "Enero/2024", false, ""},
	)

	result, err := service.Import(context.Background(), ImportInput{
		TableName: "instar_carga_manual",
		FileName:  "enero.xlsx",
		File:      file,
	})
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{
		TableName:    "proj.bayer.instar_historico",
		TempTable:    "proj.bayer.instar_carga_manual",
		RowsImported: 2,
	}, result)

	rows := warehouse.Rows(instarDataset.Table)
	require.Len(t, rows, 4)
	assert.Equal(t, []bq.Value{"Enero/2024", "acme", int64(10), true}, rows[2])
	assert.Equal(t, []bq.Value{"Enero/2024", "globex", nil, false}, rows[3])
	assert.False(t, warehouse.HasTable(instarDataset.Table.Sibling("instar_carga_manual")))
}

func TestFixture_ImportGeneratesTempTableName(t *testing.T) {
	warehouse := memory.NewDatasetRepository()
	warehouse.PutTable(instarDataset.Table, instarColumns, nil)

	service := NewService(instarDataset, warehouse, nil, testConfig())

	result, err := service.Import(context.Background(), ImportInput{
		File: xlsxFile(t,
			[]any{"Mes_Anio", "Cliente", "Ventas", "Activo"},
			[]any{"Mayo/2024", "acme", 1, 1},
		),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^proj\.bayer\.instar_import_[a-z0-9]{10}$`, result.TempTable)
	assert.Equal(t, int64(1), result.RowsImported)
}

func TestFixture_ImportValidation(t *testing.T) {
	tests := []struct {
		name  string
		input func(t *testing.T) ImportInput
		setup func(w *memory.DatasetRepository)
		field string
	}{
		{
			name: "nome de tabela inválido",
			input: func(t *testing.T) ImportInput {
				return ImportInput{TableName: "carga-2024", File: xlsxFile(t, []any{"Mes_Anio"})}
			},
			field: "table_name",
		},
		{
			name: "extensão errada",
			input: func(t *testing.T) ImportInput {
				return ImportInput{FileName: "dados.csv", File: bytes.NewBufferString("a,b")}
			},
			field: "file",
		},
		{
			name: "colunas faltando e sobrando",
			input: func(t *testing.T) ImportInput {
				return ImportInput{File: xlsxFile(t,
					[]any{"Mes_Anio", "Cliente", "Ventas", "Extra"},
					[]any{"Enero/2024", "acme", 1, "x"},
				)}
			},
			field: "file",
		},
		{
			name: "inteiro inválido",
			input: func(t *testing.T) ImportInput {
				return ImportInput{File: xlsxFile(t,
					[]any{"Mes_Anio", "Cliente", "Ventas", "Activo"},
					[]any{"Enero/2024", "acme", 1.5, true},
				)}
			},
			field: "file",
		},
		{
			name: "mês inválido",
			input: func(t *testing.T) ImportInput {
				return ImportInput{File: xlsxFile(t,
					[]any{"Mes_Anio", "Cliente", "Ventas", "Activo"},
					[]any{"Janeiro/2024", "acme", 1, true},
				)}
			},
			field: "file",
		},
		{
			name: "tabela temporária já existe",
			input: func(t *testing.T) ImportInput {
				return ImportInput{TableName: "ocupada", File: xlsxFile(t,
					[]any{"Mes_Anio", "Cliente", "Ventas", "Activo"},
					[]any{"Enero/2024", "acme", 1, true},
				)}
			},
			setup: func(w *memory.DatasetRepository) {
				w.PutTable(instarDataset.Table.Sibling("ocupada"), instarColumns, nil)
			},
			field: "table_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warehouse := memory.NewDatasetRepository()
			warehouse.PutTable(instarDataset.Table, instarColumns, nil)
			if tt.setup != nil {
				tt.setup(warehouse)
			}

			service := NewService(instarDataset, warehouse, nil, testConfig())

			_, err := service.Import(context.Background(), tt.input(t))
			assertValidation(t, err, tt.field)
			assert.Empty(t, warehouse.Rows(instarDataset.Table))
		})
	}
}
