package handler

import (
	"net/http"

	"github.com/vfg2006/historico-admin-api/internal/api/handler/router"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/usecases/auditing"
	"github.com/vfg2006/historico-admin-api/internal/usecases/authenticating"
	"github.com/vfg2006/historico-admin-api/internal/usecases/historical"
	"github.com/vfg2006/historico-admin-api/pkg/middleware"
)

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

func Authentication(service authenticating.Authenticator) []router.Route {
	return []router.Route{
		{
			Path:    "/api/login",
			Method:  http.MethodPost,
			Handler: Login(service),
		},
	}
}

// Dataset registra as rotas de um dataset. As operações que alteram o
// warehouse passam pelo token quando requireToken está ligado.
func Dataset(service historical.DatasetManager, auth authenticating.Authenticator, requireToken bool) []router.Route {
	base := "/api/" + string(service.Dataset().Name)
	protected := []func(http.Handler) http.Handler{middleware.RequireToken(auth, requireToken)}

	return []router.Route{
		{
			Path:    base + "/meses",
			Method:  http.MethodGet,
			Handler: ListMonths(service),
		},
		{
			Path:        base,
			Method:      http.MethodDelete,
			Handler:     DeleteMonths(service),
			Middlewares: protected,
		},
		{
			Path:        base + "/append",
			Method:      http.MethodPost,
			Handler:     AppendMonths(service),
			Middlewares: protected,
		},
		{
			Path:        base + "/import",
			Method:      http.MethodPost,
			Handler:     ImportSpreadsheet(service),
			Middlewares: protected,
		},
	}
}

func Export(services map[domain.DatasetName]historical.DatasetManager) []router.Route {
	return []router.Route{
		{
			Path:    "/api/export",
			Method:  http.MethodPost,
			Handler: ExportCSV(services),
		},
	}
}

// Table usa o descritor do Instar para o prefixo sugerido
func Table(service historical.DatasetManager) []router.Route {
	return []router.Route{
		{
			Path:    "/api/table/prefix",
			Method:  http.MethodGet,
			Handler: TablePrefix(service),
		},
		{
			Path:    "/api/table/info",
			Method:  http.MethodPost,
			Handler: TableInfo(service),
		},
	}
}

// Audit expõe o histórico de operações, protegido como as rotas que alteram dados
func Audit(auditor auditing.Auditor, auth authenticating.Authenticator, requireToken bool) []router.Route {
	return []router.Route{
		{
			Path:        "/api/audit",
			Method:      http.MethodGet,
			Handler:     ListAudit(auditor),
			Middlewares: []func(http.Handler) http.Handler{middleware.RequireToken(auth, requireToken)},
		},
	}
}
