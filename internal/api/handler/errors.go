package handler

import (
	"errors"
	"net/http"

	"github.com/vfg2006/historico-admin-api/infrastructure/database/bigquery"
	"github.com/vfg2006/historico-admin-api/internal/months"
	"github.com/vfg2006/historico-admin-api/internal/usecases/historical"
	"github.com/vfg2006/historico-admin-api/pkg/apiErrors"
	"github.com/vfg2006/historico-admin-api/pkg/log"
)

// writeServiceError traduz o erro do serviço para a resposta. Erros do
// warehouse chegam ao cliente com mensagem fixa; o erro completo fica no log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	logger := log.ForContext(r.Context()).WithField("operation", action)

	var validationErr *historical.ValidationError
	var warehouseErr *bigquery.Error

	switch {
	case errors.As(err, &validationErr):
		logger.WithError(err).Warn("Requisição recusada na validação")
		apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, validationErr.Message, validationDetails(validationErr))

	case bigquery.IsTimeout(err):
		logger.WithError(err).Error("Tempo limite excedido no BigQuery")
		apiErrors.WriteError(w, apiErrors.ErrWarehouseTimeout, "BigQuery no respondió a tiempo al "+action, nil)

	case bigquery.IsNotFound(err):
		logger.WithError(err).Warn("Tabela inexistente no BigQuery")
		apiErrors.WriteError(w, apiErrors.ErrTableNotFound, "La tabla no existe en BigQuery", nil)

	case errors.As(err, &warehouseErr):
		logger.WithError(err).Error("Falha no BigQuery")

		var details any
		if warehouseErr.Reason != "" {
			details = map[string]string{"reason": warehouseErr.Reason}
		}
		apiErrors.WriteError(w, apiErrors.ErrWarehouseQuery, "Error de BigQuery al "+action, details)

	case errors.Is(err, months.ErrFormat):
		logger.WithError(err).Error("Mês gravado fora do formato esperado")
		apiErrors.WriteError(w, apiErrors.ErrMonthFormat, "La tabla contiene meses con un formato inesperado", nil)

	default:
		logger.WithError(err).Error("Erro inesperado")
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Error interno al "+action, nil)
	}
}

func validationDetails(err *historical.ValidationError) any {
	if err.Field == "" && err.Details == nil {
		return nil
	}

	details := map[string]any{"field": err.Field}
	if err.Details != nil {
		details["values"] = err.Details
	}
	return details
}

func writeBadRequest(w http.ResponseWriter) {
	apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de solicitud inválido", nil)
}
