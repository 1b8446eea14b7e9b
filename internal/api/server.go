package api

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/historico-admin-api/internal/api/handler"
	"github.com/vfg2006/historico-admin-api/internal/api/handler/router"
	"github.com/vfg2006/historico-admin-api/internal/config"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/usecases/auditing"
	"github.com/vfg2006/historico-admin-api/internal/usecases/authenticating"
	"github.com/vfg2006/historico-admin-api/internal/usecases/historical"
	"github.com/vfg2006/historico-admin-api/pkg/middleware"
)

type Server struct {
	httpServer *http.Server
	closers    []func() error
}

type Option func(*Server)

// WithCloser registra recursos fechados depois do desligamento do HTTP
func WithCloser(closer func() error) Option {
	return func(s *Server) {
		s.closers = append(s.closers, closer)
	}
}

func New(
	config *config.Config,
	authenticator authenticating.Authenticator,
	datasets map[domain.DatasetName]historical.DatasetManager,
	auditor auditing.Auditor,
	assets fs.FS,
	opts ...Option,
) (*Server, error) {
	instar, ok := datasets[domain.DatasetInstar]
	if !ok {
		return nil, fmt.Errorf("dataset %s não configurado", domain.DatasetInstar)
	}

	routes := []router.ConfigRouter{
		router.WithRoutes(handler.Healthcheck()...),
		router.WithRoutes(handler.Authentication(authenticator)...),
		router.WithRoutes(handler.Export(datasets)...),
		router.WithRoutes(handler.Table(instar)...),
		router.WithRoutes(handler.Audit(auditor, authenticator, config.Auth.RequireToken)...),
	}
	for _, name := range domain.DatasetNames {
		if service, ok := datasets[name]; ok {
			routes = append(routes, router.WithRoutes(handler.Dataset(service, authenticator, config.Auth.RequireToken)...))
		}
	}
	if assets != nil {
		routes = append(routes, router.WithFallback(handler.Static(assets)))
	}

	rt := router.New(routes...)

	middlewares := []alice.Constructor{
		middleware.LogPanicMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.Cors(config.Server.AllowedOrigins),
	}

	handler := alice.New(middlewares...).Then(rt)

	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 2 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(srv)
	}

	return srv, nil
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		logrus.WithFields(logrus.Fields{
			"address": s.httpServer.Addr,
		}).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Erro durante a execução do servidor")
		}
	}()

	// Canal para aguardar sinais de término
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		logrus.Info("Sinal de interrupção recebido")
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"timeout": "15s",
	}).Info("Iniciando desligamento gracioso do servidor")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor desligado com sucesso")
	return nil
}

// Shutdown espera as requisições em andamento e fecha o BigQuery e o banco de auditoria
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return err
	}
	logrus.Info("Servidor HTTP desligado com sucesso")

	for _, closer := range s.closers {
		if err := closer(); err != nil {
			logrus.WithError(err).Warn("Erro ao liberar recurso no desligamento")
		}
	}

	return nil
}
