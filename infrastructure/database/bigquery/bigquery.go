package bigquery

import (
	"context"
	"io"
	"strings"

	bq "cloud.google.com/go/bigquery"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/vfg2006/historico-admin-api/internal/config"
	"github.com/vfg2006/historico-admin-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:generate mockgen -source=bigquery.go -destination=mocks/bigquery.go -package=mocks

// Rows percorre o resultado de uma consulta. Next retorna iterator.Done ao final.
type Rows interface {
	Next() ([]bq.Value, error)
}

type Queryer interface {
	// Query executa uma consulta com parâmetros posicionais (?)
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)
	// Exec executa uma DML e retorna o número de linhas afetadas
	Exec(ctx context.Context, sql string, args ...interface{}) (int64, error)
}

type Conn interface {
	Queryer
	Table(ctx context.Context, ref domain.TableRef) (*bq.TableMetadata, error)
	LoadCSV(ctx context.Context, ref domain.TableRef, schema bq.Schema, r io.Reader) error
	DeleteTable(ctx context.Context, ref domain.TableRef) error
	Close() error
}

type Connection struct {
	client *bq.Client
}

func NewConnection(ctx context.Context, cfg *config.Config) (*Connection, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	projectID := cfg.BigQuery.ProjectID
	if projectID == "" {
		projectID = bq.DetectProjectID
	}

	client, err := bq.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.BigQuery.Location != "" {
		client.Location = cfg.BigQuery.Location
	}

	return &Connection{client: client}, nil
}

// clientOptions escolhe as credenciais: arquivo da service account, campos
// avulsos da service account ou as credenciais padrão do ambiente
func clientOptions(cfg *config.Config) ([]option.ClientOption, error) {
	if cfg.BigQuery.CredentialsPath != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.BigQuery.CredentialsPath)}, nil
	}

	if cfg.ServiceSA.Configured() {
		credentials, err := serviceAccountJSON(cfg.ServiceSA)
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithCredentialsJSON(credentials)}, nil
	}

	return nil, nil
}

func serviceAccountJSON(sa config.ServiceSA) ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     sa.ProjectID,
		"private_key_id": sa.PrivateKeyID,
		// chaves vindas de variável de ambiente costumam ter "\n" escapado
		"private_key":  strings.ReplaceAll(sa.PrivateKey, `\n`, "\n"),
		"client_email": sa.ClientEmail,
		"client_id":    sa.ClientID,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
}

func (c *Connection) Close() error {
	return c.client.Close()
}

func (c *Connection) query(sql string, args []interface{}) *bq.Query {
	q := c.client.Query(sql)

	if len(args) > 0 {
		params := make([]bq.QueryParameter, len(args))
		for i, arg := range args {
			params[i] = bq.QueryParameter{Value: arg}
		}
		q.Parameters = params
	}

	return q
}

func (c *Connection) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	it, err := c.query(sql, args).Read(ctx)
	if err != nil {
		return nil, wrap(ctx, "query", "", err)
	}

	return &rows{ctx: ctx, it: it}, nil
}

func (c *Connection) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	job, err := c.query(sql, args).Run(ctx)
	if err != nil {
		return 0, wrap(ctx, "exec", "", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, wrap(ctx, "exec", "", err)
	}
	if err := status.Err(); err != nil {
		return 0, wrap(ctx, "exec", "", err)
	}

	if stats, ok := status.Statistics.Details.(*bq.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}

	return 0, nil
}

func (c *Connection) handle(ref domain.TableRef) *bq.Table {
	return c.client.DatasetInProject(ref.ProjectID, ref.DatasetID).Table(ref.TableID)
}

func (c *Connection) Table(ctx context.Context, ref domain.TableRef) (*bq.TableMetadata, error) {
	md, err := c.handle(ref).Metadata(ctx)
	if err != nil {
		return nil, wrap(ctx, "metadata", ref.String(), err)
	}

	return md, nil
}

// LoadCSV substitui o conteúdo da tabela pelo CSV (com cabeçalho) informado
func (c *Connection) LoadCSV(ctx context.Context, ref domain.TableRef, schema bq.Schema, r io.Reader) error {
	source := bq.NewReaderSource(r)
	source.SourceFormat = bq.CSV
	source.Schema = schema
	source.SkipLeadingRows = 1
	source.AllowQuotedNewlines = true

	loader := c.handle(ref).LoaderFrom(source)
	loader.CreateDisposition = bq.CreateIfNeeded
	loader.WriteDisposition = bq.WriteTruncate

	job, err := loader.Run(ctx)
	if err != nil {
		return wrap(ctx, "load", ref.String(), err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return wrap(ctx, "load", ref.String(), err)
	}
	if err := status.Err(); err != nil {
		return wrap(ctx, "load", ref.String(), err)
	}

	return nil
}

// DeleteTable remove a tabela; tabela inexistente não é erro
func (c *Connection) DeleteTable(ctx context.Context, ref domain.TableRef) error {
	err := c.handle(ref).Delete(ctx)
	if err != nil {
		wrapped := wrap(ctx, "delete-table", ref.String(), err)
		if IsNotFound(wrapped) {
			return nil
		}
		return wrapped
	}

	return nil
}

type rows struct {
	ctx context.Context
	it  *bq.RowIterator
}

func (r *rows) Next() ([]bq.Value, error) {
	var row []bq.Value
	if err := r.it.Next(&row); err != nil {
		if err == iterator.Done {
			return nil, err
		}
		return nil, wrap(r.ctx, "read", "", err)
	}

	return row, nil
}
