package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/vfg2006/historico-admin-api/internal/usecases/authenticating"
	"github.com/vfg2006/historico-admin-api/pkg/apiErrors"
	"github.com/vfg2006/historico-admin-api/pkg/log"
	"github.com/vfg2006/historico-admin-api/pkg/utils"
)

type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse mantém o campo ok que o front antigo verifica
type LoginResponse struct {
	OK        bool       `json:"ok"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Code      string     `json:"code,omitempty"`
	Message   string     `json:"message,omitempty"`
}

func Login(service authenticating.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest

		if err := utils.DecodeJSON(r.Body, &req); err != nil {
			apiErrors.WriteJSON(w, http.StatusBadRequest, LoginResponse{
				Code:    apiErrors.ErrInvalidRequest,
				Message: "Formato de solicitud inválido",
			})
			return
		}

		token, expiresAt, err := service.Login(req.Password)
		if err != nil {
			handleLoginError(w, r, err)
			return
		}

		expiresAt = expiresAt.UTC()
		apiErrors.WriteJSON(w, http.StatusOK, LoginResponse{
			OK:        true,
			Token:     token,
			ExpiresAt: &expiresAt,
		})
	}
}

// handleLoginError responde no formato {ok:false, code, message}
func handleLoginError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *authenticating.AuthError
	if errors.As(err, &authErr) {
		apiErrors.WriteJSON(w, apiErrors.StatusFor(authErr.Code), LoginResponse{
			Code:    authErr.Code,
			Message: "Contraseña incorrecta",
		})
		return
	}

	log.ForContext(r.Context()).WithError(err).Error("Erro ao emitir token de sessão")
	apiErrors.WriteJSON(w, http.StatusInternalServerError, LoginResponse{
		Code:    apiErrors.ErrInternalServer,
		Message: "Error interno al iniciar sesión",
	})
}
