package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	bq "cloud.google.com/go/bigquery"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vfg2006/historico-admin-api/infrastructure/database/bigquery"
	"github.com/vfg2006/historico-admin-api/infrastructure/repository/memory"
	"github.com/vfg2006/historico-admin-api/internal/config"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/months"
	"github.com/vfg2006/historico-admin-api/internal/usecases/auditing"
	"github.com/vfg2006/historico-admin-api/internal/usecases/authenticating"
	"github.com/vfg2006/historico-admin-api/internal/usecases/historical"
	"github.com/vfg2006/historico-admin-api/pkg/apiErrors"
	"github.com/vfg2006/historico-admin-api/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	instarTable  = domain.TableRef{ProjectID: "proj", DatasetID: "bayer", TableID: "instar_historico"}
	admediaTable = domain.TableRef{ProjectID: "proj", DatasetID: "bayer", TableID: "admedia_historico"}

	instarColumns = []domain.Column{
		{Name: "Mes_Anio", Type: "STRING"},
		{Name: "Cliente", Type: "STRING"},
		{Name: "Ventas", Type: "INTEGER"},
	}
	admediaColumns = []domain.Column{
		{Name: "Mes", Type: "STRING"},
		{Name: "Medio", Type: "STRING"},
	}
)

type testServer struct {
	handler   http.Handler
	warehouse *memory.DatasetRepository
	auth      authenticating.Authenticator
}

func rows(month string, n int) [][]bq.Value {
	out := make([][]bq.Value, n)
	for i := range out {
		out[i] = []bq.Value{month, fmt.Sprintf("cliente-%d", i), int64(i)}
	}
	return out
}

func newTestServer(t *testing.T, requireToken bool) *testServer {
	t.Helper()
	log.SetupTestLogger()

	cfg := &config.Config{
		App:      config.App{QueryTimeout: 5 * time.Second},
		Auth:     config.Auth{Password: "secreta", Secret: "chave-de-teste", TokenTTL: time.Hour, RequireToken: requireToken},
		BigQuery: config.BigQuery{ReadRetries: 1},
		Server:   config.Server{Host: "localhost", Port: "0", AllowedOrigins: []string{"*"}},
	}

	warehouse := memory.NewDatasetRepository()
	var instarRows [][]bq.Value
	instarRows = append(instarRows, rows("Enero/2024", 10)...)
	instarRows = append(instarRows, rows("Diciembre/2023", 5)...)
	warehouse.PutTable(instarTable, instarColumns, instarRows)
	warehouse.PutTable(admediaTable, admediaColumns, [][]bq.Value{
		{"2024 01 Ene", "tv"},
		{"2023 12 Dic", "radio"},
	})

	datasets := map[domain.DatasetName]historical.DatasetManager{
		domain.DatasetInstar: historical.NewService(domain.Dataset{
			Name: domain.DatasetInstar, Table: instarTable, MonthColumn: "Mes_Anio", Format: months.Instar,
		}, warehouse, nil, cfg),
		domain.DatasetAdMedia: historical.NewService(domain.Dataset{
			Name: domain.DatasetAdMedia, Table: admediaTable, MonthColumn: "Mes", Format: months.AdMedia,
		}, warehouse, nil, cfg),
	}

	assets := fstest.MapFS{
		"index.html": {Data: []byte("<html>painel</html>")},
		"app.js":     {Data: []byte("console.log('painel')")},
	}

	auth := authenticating.NewService(cfg.Auth)
	srv, err := New(cfg, auth, datasets, auditing.Nop{}, assets)
	require.NoError(t, err)

	return &testServer{handler: srv.Handler(), warehouse: warehouse, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestServer_Login(t *testing.T) {
	srv := newTestServer(t, false)

	t.Run("senha errada", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/login", `{"password":"errada"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]any
		decode(t, rec, &body)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, apiErrors.ErrInvalidCredentials, body["code"])
	})

	t.Run("senha correta", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/login", `{"password":"secreta"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		decode(t, rec, &body)
		assert.Equal(t, true, body["ok"])
		assert.NotEmpty(t, body["token"])
		assert.NotEmpty(t, body["expires_at"])
	})

	t.Run("json inválido", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/login", `{"password":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_DeleteThenList(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodDelete, "/api/instar", `{"months":["2024-01"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var deleted historical.DeleteResult
	decode(t, rec, &deleted)
	assert.Equal(t, int64(10), deleted.Deleted)
	assert.Equal(t, []string{"Enero/2024"}, deleted.Months)

	rec = srv.do(t, http.MethodGet, "/api/instar/meses", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed map[string][]string
	decode(t, rec, &listed)
	assert.Equal(t, []string{"Diciembre/2023"}, listed["months"])
	assert.Len(t, srv.warehouse.Rows(instarTable), 5)
}

func TestServer_ListMonths(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/api/admedia/meses?order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed map[string][]string
	decode(t, rec, &listed)
	assert.Equal(t, []string{"2024 01 Ene", "2023 12 Dic"}, listed["months"])

	rec = srv.do(t, http.MethodGet, "/api/admedia/meses?order=aleatorio", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_DeleteValidation(t *testing.T) {
	srv := newTestServer(t, false)
	calls := srv.warehouse.Calls()

	rec := srv.do(t, http.MethodDelete, "/api/instar", `{"months":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body apiErrors.APIError
	decode(t, rec, &body)
	assert.Equal(t, apiErrors.ErrInvalidRequest, body.Code)

	rec = srv.do(t, http.MethodDelete, "/api/instar", `{"months":["Janeiro/2024"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, calls, srv.warehouse.Calls())
}

func TestServer_Append(t *testing.T) {
	srv := newTestServer(t, false)
	source := domain.TableRef{ProjectID: "proj", DatasetID: "stage", TableID: "instar_carga"}
	srv.warehouse.PutTable(source, instarColumns, rows("Febrero/2024", 4))

	rec := srv.do(t, http.MethodPost, "/api/instar/append", `{"source_table":"proj.stage.instar_carga","months":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/instar/append", `{"source_table":"proj.stage.instar_carga","months":[],"full_reload":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result historical.AppendResult
	decode(t, rec, &result)
	assert.Equal(t, int64(4), result.Inserted)
	assert.Equal(t, "proj.bayer.instar_historico", result.DestinationTable)
	assert.Len(t, srv.warehouse.Rows(instarTable), 19)
}

func TestServer_Export(t *testing.T) {
	srv := newTestServer(t, false)

	t.Run("mais de três meses", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/export", `{"dataset":"instar","months":["2024-01","2024-02","2024-03","2024-04"]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body apiErrors.APIError
		decode(t, rec, &body)
		assert.Equal(t, apiErrors.ErrInvalidRequest, body.Code)
	})

	t.Run("dataset desconhecido", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/export", `{"dataset":"outro","months":["2024-01"]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("csv com colunas escolhidas", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/export", `{"source":"instar","months":["Diciembre/2023"],"columns":["cliente","Ventas"]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Regexp(t, `^attachment; filename=instar_export_\d{14}\.csv$`, rec.Header().Get("Content-Disposition"))

		lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\r\n"), "\r\n")
		require.Len(t, lines, 6)
		assert.Equal(t, "Cliente,Ventas", lines[0])
		assert.Equal(t, "cliente-0,0", lines[1])
	})

	t.Run("coluna inexistente", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/export", `{"dataset":"admedia","months":["2024-01"],"columns":["Nada"]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Table(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/api/table/prefix", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prefix":"proj.bayer."}`, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/table/info", `{"table":"proj.bayer.instar_historico"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"table":"proj.bayer.instar_historico","row_count":15}`, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/table/info", `{"table":"proj.bayer.nao_existe"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body apiErrors.APIError
	decode(t, rec, &body)
	assert.Equal(t, apiErrors.ErrTableNotFound, body.Code)

	rec = srv.do(t, http.MethodPost, "/api/table/info", `{"table":"sem-pontos"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_WarehouseErrors(t *testing.T) {
	srv := newTestServer(t, false)

	t.Run("permissão negada", func(t *testing.T) {
		srv.warehouse.FailNext(&bigquery.Error{Op: "query", Code: http.StatusForbidden, Reason: "accessDenied"})

		rec := srv.do(t, http.MethodDelete, "/api/admedia", `{"months":["2024 01 Ene"]}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var body apiErrors.APIError
		decode(t, rec, &body)
		assert.Equal(t, apiErrors.ErrWarehouseQuery, body.Code)
		assert.Equal(t, map[string]any{"reason": "accessDenied"}, body.Details)
		assert.NotContains(t, body.Message, "DELETE")
	})

	t.Run("tempo limite", func(t *testing.T) {
		srv.warehouse.FailNext(&bigquery.Error{Op: "query", Timeout: true})

		rec := srv.do(t, http.MethodGet, "/api/admedia/meses", "")
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("mês fora do formato no warehouse", func(t *testing.T) {
		srv.warehouse.PutTable(admediaTable, admediaColumns, [][]bq.Value{{"lixo", "tv"}})

		rec := srv.do(t, http.MethodGet, "/api/admedia/meses", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body apiErrors.APIError
		decode(t, rec, &body)
		assert.Equal(t, apiErrors.ErrMonthFormat, body.Code)
	})
}

func TestServer_RequireToken(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(t, http.MethodDelete, "/api/instar", `{"months":["2024-01"]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, srv.warehouse.Rows(instarTable), 15)

	// leitura continua aberta
	rec = srv.do(t, http.MethodGet, "/api/instar/meses", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	token, _, err := srv.auth.Login("secreta")
	require.NoError(t, err)

	rec = srv.do(t, http.MethodDelete, "/api/instar", `{"months":["2024-01"]}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, srv.warehouse.Rows(instarTable), 5)

	// o histórico de operações segue a mesma regra
	rec = srv.do(t, http.MethodGet, "/api/audit?limit=10", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/audit?limit=10", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Import(t *testing.T) {
	srv := newTestServer(t, false)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Mes", "Medio"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Feb/2024", "web"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"2024-02", "tv"}))
	sheet, err := f.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("table_name", "admedia_carga"))
	part, err := form.CreateFormFile("file", "carga.xlsx")
	require.NoError(t, err)
	_, err = part.Write(sheet.Bytes())
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admedia/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result historical.ImportResult
	decode(t, rec, &result)
	assert.Equal(t, int64(2), result.RowsImported)
	assert.Len(t, srv.warehouse.Rows(admediaTable), 4)
	assert.False(t, srv.warehouse.HasTable(admediaTable.Sibling("admedia_carga")))

	rec = srv.do(t, http.MethodPost, "/api/admedia/import", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AuditAndHealthcheck(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/api/audit?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/api/audit?limit=dez", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := time.Parse(time.RFC3339, rec.Body.String())
	assert.NoError(t, err)
}

func TestServer_Static(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "painel")

	rec = srv.do(t, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = srv.do(t, http.MethodGet, "/exportar", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html>")

	rec = srv.do(t, http.MethodGet, "/api/nada", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
