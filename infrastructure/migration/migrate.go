// Package migration aplica o schema da trilha de auditoria no PostgreSQL
package migration

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/historico-admin-api/internal/config"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Up aplica as migrações pendentes. Usa uma conexão própria porque o driver
// do migrate fecha a conexão ao terminar.
func Up(cfg config.Database) error {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("abrindo conexão de migração: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("criando driver postgres: %w", err)
	}

	source, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return fmt.Errorf("lendo migrações embutidas: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("criando instância do migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("aplicando migrações: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		logrus.Infof("Schema de auditoria na versão %d (dirty=%t)", version, dirty)
	}

	return nil
}
