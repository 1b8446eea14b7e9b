package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App       App       `mapstructure:",squash"`
	Server    Server    `mapstructure:",squash"`
	Auth      Auth      `mapstructure:",squash"`
	BigQuery  BigQuery  `mapstructure:",squash"`
	Instar    Dataset   `mapstructure:"-"`
	AdMedia   Dataset   `mapstructure:"-"`
	Database  Database  `mapstructure:",squash"`
	Audit     Audit     `mapstructure:",squash"`
	ServiceSA ServiceSA `mapstructure:",squash"`
}

type App struct {
	LogLevel     string        `mapstructure:"log_level"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

type Server struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

type Auth struct {
	Password     string        `mapstructure:"app_password"`
	PasswordHash string        `mapstructure:"app_password_hash"`
	Secret       string        `mapstructure:"auth_secret"`
	TokenTTL     time.Duration `mapstructure:"auth_token_ttl"`
	RequireToken bool          `mapstructure:"auth_require_token"`
}

type BigQuery struct {
	ProjectID       string `mapstructure:"gcp_project_id"`
	Location        string `mapstructure:"bigquery_location"`
	CredentialsPath string `mapstructure:"bigquery_credentials_path"`
	ReadRetries     int    `mapstructure:"bigquery_read_retries"`
}

// ServiceSA são os campos de uma service account passados direto por variável de ambiente
type ServiceSA struct {
	PrivateKey   string `mapstructure:"private_key"`
	PrivateKeyID string `mapstructure:"private_key_id"`
	ClientEmail  string `mapstructure:"client_email"`
	ClientID     string `mapstructure:"client_id"`
	ProjectID    string `mapstructure:"project_id"`
}

// Configured informa se há credenciais suficientes para montar a service account
func (s ServiceSA) Configured() bool {
	return s.PrivateKey != "" && s.ClientEmail != ""
}

// Dataset é a configuração de um dataset histórico. ProjectID já vem resolvido
// com o projeto global quando não há override.
type Dataset struct {
	ProjectID   string
	Dataset     string
	Table       string
	MonthColumn string
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

type Audit struct {
	Enabled bool `mapstructure:"audit_enabled"`
}

// DefaultAuthSecret só serve para desenvolvimento; com AUTH_REQUIRE_TOKEN ligado é recusado
const DefaultAuthSecret = "your_secret_key"

func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "localhost")
	v.SetDefault("PORT", 8000)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("QUERY_TIMEOUT", "60s")

	v.SetDefault("APP_PASSWORD", "")
	v.SetDefault("APP_PASSWORD_HASH", "")
	v.SetDefault("AUTH_SECRET", DefaultAuthSecret)
	v.SetDefault("AUTH_TOKEN_TTL", "12h")
	v.SetDefault("AUTH_REQUIRE_TOKEN", false) // comportamento legado: só o front guarda a sessão

	v.SetDefault("GCP_PROJECT_ID", "")
	v.SetDefault("BIGQUERY_LOCATION", "")
	v.SetDefault("BIGQUERY_CREDENTIALS_PATH", "")
	v.SetDefault("BIGQUERY_READ_RETRIES", 3)

	v.SetDefault("PRIVATE_KEY", "")
	v.SetDefault("PRIVATE_KEY_ID", "")
	v.SetDefault("CLIENT_EMAIL", "")
	v.SetDefault("CLIENT_ID", "")
	v.SetDefault("PROJECT_ID", "")

	v.SetDefault("INSTAR_PROJECT_ID", "")
	v.SetDefault("INSTAR_DATASET", "bayer")
	v.SetDefault("INSTAR_TABLE", "instar_historico")
	v.SetDefault("INSTAR_MONTH_COLUMN", "Mes_Anio")

	v.SetDefault("ADMEDIA_PROJECT_ID", "")
	v.SetDefault("ADMEDIA_DATASET", "bayer")
	v.SetDefault("ADMEDIA_TABLE", "admedia_historico")
	v.SetDefault("ADMEDIA_MONTH_COLUMN", "Mes")

	// Auditoria opcional em PostgreSQL
	v.SetDefault("AUDIT_ENABLED", false)
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "localhost:5432/historico?sslmode=disable")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "root")
}

func NewConfig() (*Config, error) {
	loadEnvFile() // ONLY LOCAL

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	return load(viper.GetViper())
}

// load decodifica a configuração de uma instância do viper já preparada
func load(v *viper.Viper) (*Config, error) {
	config := &Config{}

	err := v.Unmarshal(config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	// O projeto global cai para o project_id da service account
	if config.BigQuery.ProjectID == "" {
		config.BigQuery.ProjectID = config.ServiceSA.ProjectID
	}

	config.Instar = Dataset{
		ProjectID:   firstNonEmpty(v.GetString("INSTAR_PROJECT_ID"), config.BigQuery.ProjectID),
		Dataset:     v.GetString("INSTAR_DATASET"),
		Table:       v.GetString("INSTAR_TABLE"),
		MonthColumn: v.GetString("INSTAR_MONTH_COLUMN"),
	}
	config.AdMedia = Dataset{
		ProjectID:   firstNonEmpty(v.GetString("ADMEDIA_PROJECT_ID"), config.BigQuery.ProjectID),
		Dataset:     v.GetString("ADMEDIA_DATASET"),
		Table:       v.GetString("ADMEDIA_TABLE"),
		MonthColumn: v.GetString("ADMEDIA_MONTH_COLUMN"),
	}

	config.Server.AllowedOrigins = trimAll(config.Server.AllowedOrigins)

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate confere os valores obrigatórios antes de subir o servidor
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		errs = append(errs, errors.New("APP_PASSWORD ou APP_PASSWORD_HASH precisa ser configurado"))
	}
	if c.Auth.RequireToken {
		if secret := strings.TrimSpace(c.Auth.Secret); secret == "" || secret == DefaultAuthSecret {
			errs = append(errs, errors.New("AUTH_SECRET precisa ser definido com um valor próprio quando AUTH_REQUIRE_TOKEN está ligado"))
		}
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_TTL inválido: %s", c.Auth.TokenTTL))
	}
	if c.App.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("QUERY_TIMEOUT inválido: %s", c.App.QueryTimeout))
	}
	if c.BigQuery.ReadRetries < 1 {
		errs = append(errs, fmt.Errorf("BIGQUERY_READ_RETRIES deve ser ao menos 1, recebido %d", c.BigQuery.ReadRetries))
	}

	for name, ds := range map[string]Dataset{"INSTAR": c.Instar, "ADMEDIA": c.AdMedia} {
		if ds.ProjectID == "" {
			errs = append(errs, fmt.Errorf("projeto do BigQuery não configurado para %s: defina GCP_PROJECT_ID ou %s_PROJECT_ID", name, name))
		}
		if ds.Dataset == "" || ds.Table == "" {
			errs = append(errs, fmt.Errorf("%s_DATASET e %s_TABLE são obrigatórios", name, name))
		}
		if ds.MonthColumn == "" {
			errs = append(errs, fmt.Errorf("%s_MONTH_COLUMN é obrigatório", name))
		}
	}

	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),               // Diretório atual
		filepath.Join(filepath.Dir(cwd), ".env"), // Diretório pai
		filepath.Join(cwd, "../../.env"),         // Dois diretórios acima
	}

	for _, location := range locations {
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
