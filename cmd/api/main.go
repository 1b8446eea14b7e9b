package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vfg2006/historico-admin-api/infrastructure/database/bigquery"
	"github.com/vfg2006/historico-admin-api/infrastructure/database/postgres"
	"github.com/vfg2006/historico-admin-api/infrastructure/migration"
	"github.com/vfg2006/historico-admin-api/infrastructure/repository"
	"github.com/vfg2006/historico-admin-api/internal/api"
	"github.com/vfg2006/historico-admin-api/internal/config"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/usecases/auditing"
	"github.com/vfg2006/historico-admin-api/internal/usecases/authenticating"
	"github.com/vfg2006/historico-admin-api/internal/usecases/historical"
	"github.com/vfg2006/historico-admin-api/pkg/log"
	"github.com/vfg2006/historico-admin-api/web"
)

func main() {
	log.Configure("info")

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Configuração inválida")
	}

	log.Configure(cfg.App.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bqConn := bqconn(ctx, cfg)

	descriptors, err := historical.BuildDatasets(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao montar os datasets")
	}

	options := []api.Option{api.WithCloser(bqConn.Close)}

	var auditor auditing.Auditor = auditing.Nop{}
	if cfg.Audit.Enabled {
		pgConn := pgconn(ctx, cfg.Database)
		options = append(options, api.WithCloser(pgConn.Close))
		auditor = auditing.NewService(repository.NewAuditRepository(pgConn))
		logrus.Info("Auditoria de operações habilitada")
	}

	datasetRepo := repository.NewDatasetRepository(bqConn)

	datasets := make(map[domain.DatasetName]historical.DatasetManager, len(descriptors))
	for name, descriptor := range descriptors {
		datasets[name] = historical.NewService(descriptor, datasetRepo, auditor, cfg)
		logrus.WithFields(logrus.Fields{
			"dataset":      name,
			"table":        descriptor.Table.String(),
			"month_column": descriptor.MonthColumn,
		}).Info("Dataset configurado")
	}

	authenticator := authenticating.NewService(cfg.Auth)

	assets, err := web.Assets()
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao carregar a interface embutida")
	}

	server, err := api.New(cfg, authenticator, datasets, auditor, assets, options...)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// bqconn cria o cliente do BigQuery compartilhado por todas as requisições
func bqconn(ctx context.Context, cfg *config.Config) *bigquery.Connection {
	conn, err := bigquery.NewConnection(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao criar cliente do BigQuery")
	}

	logrus.WithField("project", cfg.BigQuery.ProjectID).Info("Cliente do BigQuery criado com sucesso")
	return conn
}

// pgconn aplica as migrações e abre a conexão da auditoria
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	if err := migration.Up(dbConfig); err != nil {
		logrus.WithError(err).Fatal("Erro ao aplicar migrações da auditoria")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := postgres.NewConnection(pingCtx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
