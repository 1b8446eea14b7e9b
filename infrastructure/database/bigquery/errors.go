package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

var ErrTableNotFound = errors.New("tabela não encontrada")

// Error é o erro devolvido por qualquer chamada ao warehouse. A mensagem não
// carrega o SQL nem credenciais, só a operação, a tabela e o motivo.
type Error struct {
	Op      string
	Table   string
	Reason  string
	Code    int
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	msg := "bigquery " + e.Op
	if e.Table != "" {
		msg += " " + e.Table
	}
	if e.Timeout {
		return msg + ": tempo limite excedido"
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error {
	if e.Code == http.StatusNotFound || e.Reason == "notFound" {
		return ErrTableNotFound
	}
	return e.Err
}

func wrap(ctx context.Context, op, table string, err error) error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return err
	}

	e := &Error{Op: op, Table: table, Err: err}

	var apiErr *googleapi.Error
	var jobErr *bq.Error
	switch {
	case errors.As(err, &apiErr):
		e.Code = apiErr.Code
		if len(apiErr.Errors) > 0 {
			e.Reason = apiErr.Errors[0].Reason
		}
	case errors.As(err, &jobErr):
		e.Reason = jobErr.Reason
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.Timeout = true
	}

	return e
}

// IsNotFound informa se o erro é de tabela (ou dataset) inexistente
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound)
}

// IsTimeout informa se a chamada estourou o tempo limite da requisição
func IsTimeout(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Timeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

var transientReasons = map[string]bool{
	"backendError":         true,
	"internalError":        true,
	"rateLimitExceeded":    true,
	"jobRateLimitExceeded": true,
}

var transientCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
}

// IsTransient informa se vale a pena repetir a chamada
func IsTransient(err error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Timeout {
		return false
	}
	return transientReasons[e.Reason] || transientCodes[e.Code]
}
