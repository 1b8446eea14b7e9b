package handler

import (
	"net/http"
	"strconv"

	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/usecases/auditing"
	"github.com/vfg2006/historico-admin-api/pkg/apiErrors"
	"github.com/vfg2006/historico-admin-api/pkg/log"
)

type AuditResponse struct {
	Entries []*domain.AuditEntry `json:"entries"`
}

func ListAudit(auditor auditing.Auditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			var err error
			if limit, err = strconv.Atoi(raw); err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "El parámetro limit debe ser un número", nil)
				return
			}
		}

		entries, err := auditor.List(r.Context(), limit)
		if err != nil {
			log.ForContext(r.Context()).WithError(err).Error("Erro ao listar auditoria")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Error al consultar la auditoría", nil)
			return
		}
		if entries == nil {
			entries = []*domain.AuditEntry{}
		}

		apiErrors.WriteJSON(w, http.StatusOK, AuditResponse{Entries: entries})
	}
}
