package handler

import (
	"net/http"
	"time"

	"github.com/vfg2006/historico-admin-api/infrastructure/repository"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/months"
	"github.com/vfg2006/historico-admin-api/internal/usecases/historical"
	"github.com/vfg2006/historico-admin-api/pkg/apiErrors"
	"github.com/vfg2006/historico-admin-api/pkg/csvexport"
	"github.com/vfg2006/historico-admin-api/pkg/log"
	"github.com/vfg2006/historico-admin-api/pkg/utils"
)

// maxImportSize limita o formulário multipart da importação
const maxImportSize = 32 << 20

type MonthsResponse struct {
	Months []string `json:"months"`
}

type MonthsRequest struct {
	Months []string `json:"months"`
}

type AppendRequest struct {
	SourceTable      string   `json:"source_table"`
	DestinationTable string   `json:"destination_table"`
	Months           []string `json:"months"`
	FullReload       bool     `json:"full_reload"`
}

type ExportRequest struct {
	Dataset string `json:"dataset"`
	// Source é o nome antigo do campo dataset
	Source            string   `json:"source"`
	Months            []string `json:"months"`
	IncludeAllColumns bool     `json:"include_all_columns"`
	Columns           []string `json:"columns"`
}

type TableInfoRequest struct {
	Table string `json:"table"`
}

type PrefixResponse struct {
	Prefix string `json:"prefix"`
}

func ListMonths(service historical.DatasetManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := months.ParseOrder(r.URL.Query().Get("order"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "El parámetro order debe ser asc o desc", nil)
			return
		}

		labels, err := service.ListMonths(r.Context(), order)
		if err != nil {
			writeServiceError(w, r, err, "listar los meses")
			return
		}
		if labels == nil {
			labels = []string{}
		}

		apiErrors.WriteJSON(w, http.StatusOK, MonthsResponse{Months: labels})
	}
}

func DeleteMonths(service historical.DatasetManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MonthsRequest
		if err := utils.DecodeJSON(r.Body, &req); err != nil {
			writeBadRequest(w)
			return
		}

		result, err := service.DeleteMonths(r.Context(), req.Months)
		if err != nil {
			writeServiceError(w, r, err, "eliminar los meses")
			return
		}

		apiErrors.WriteJSON(w, http.StatusOK, result)
	}
}

func AppendMonths(service historical.DatasetManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppendRequest
		if err := utils.DecodeJSON(r.Body, &req); err != nil {
			writeBadRequest(w)
			return
		}

		result, err := service.Append(r.Context(), historical.AppendInput{
			SourceTable:      req.SourceTable,
			DestinationTable: req.DestinationTable,
			Months:           req.Months,
			FullReload:       req.FullReload,
		})
		if err != nil {
			writeServiceError(w, r, err, "anexar los datos")
			return
		}

		if result.Months == nil {
			result.Months = []string{}
		}
		apiErrors.WriteJSON(w, http.StatusOK, result)
	}
}

// ExportCSV grava o CSV direto na resposta. Depois que o cabeçalho HTTP sai,
// falhas só podem ir para o log.
func ExportCSV(services map[domain.DatasetName]historical.DatasetManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		var req ExportRequest
		if err := utils.DecodeJSON(r.Body, &req); err != nil {
			writeBadRequest(w)
			return
		}

		raw := req.Dataset
		if raw == "" {
			raw = req.Source
		}
		name, err := domain.ParseDatasetName(raw)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Dataset inválido, use instar o admedia", map[string]any{"field": "dataset"})
			return
		}
		service, ok := services[name]
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Dataset no configurado", map[string]any{"field": "dataset"})
			return
		}

		streaming := false
		input := historical.ExportInput{
			Months:            req.Months,
			Columns:           req.Columns,
			IncludeAllColumns: req.IncludeAllColumns,
		}

		err = service.Export(r.Context(), input, func(header []string, rows repository.Rows) error {
			filename := string(name) + "_export_" + utils.FileTimestamp(time.Now()) + ".csv"
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", "attachment; filename="+filename)
			w.WriteHeader(http.StatusOK)
			streaming = true

			written, err := csvexport.Write(w, header, rows)
			if err != nil {
				return err
			}

			logger.WithField("dataset", name).Infof("%d linhas exportadas em %s", written, filename)
			return nil
		})
		if err == nil {
			return
		}
		if streaming {
			logger.WithError(err).Error("Exportação interrompida no meio do arquivo")
			return
		}

		writeServiceError(w, r, err, "exportar los datos")
	}
}

func TablePrefix(service historical.DatasetManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiErrors.WriteJSON(w, http.StatusOK, PrefixResponse{Prefix: service.TablePrefix()})
	}
}

func TableInfo(service historical.DatasetManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TableInfoRequest
		if err := utils.DecodeJSON(r.Body, &req); err != nil {
			writeBadRequest(w)
			return
		}

		info, err := service.TableInfo(r.Context(), req.Table)
		if err != nil {
			writeServiceError(w, r, err, "consultar la tabla")
			return
		}

		apiErrors.WriteJSON(w, http.StatusOK, info)
	}
}

func ImportSpreadsheet(service historical.DatasetManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			log.ForContext(r.Context()).WithError(err).Warn("Formulário de importação inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formulario inválido, envíe table_name y file como multipart/form-data", nil)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Seleccione un archivo .xlsx", map[string]any{"field": "file"})
			return
		}
		defer file.Close()

		result, err := service.Import(r.Context(), historical.ImportInput{
			TableName: r.FormValue("table_name"),
			FileName:  header.Filename,
			File:      file,
		})
		if err != nil {
			writeServiceError(w, r, err, "importar la planilla")
			return
		}

		apiErrors.WriteJSON(w, http.StatusOK, result)
	}
}
