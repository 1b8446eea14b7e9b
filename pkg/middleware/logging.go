package middleware

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/pkg/apiErrors"
	"github.com/vfg2006/historico-admin-api/pkg/log"
)

// CorrelationIDHeader leva o ID de correlação na requisição e na resposta
const CorrelationIDHeader = "X-Correlation-ID"

// slowRequest marca requisições lentas; exportações grandes costumam passar disso
const slowRequest = 2 * time.Second

// requestOperation identifica o dataset e a operação de uma rota da API.
// Rotas fora de /api (SPA, healthcheck) voltam vazias.
func requestOperation(r *http.Request) (dataset, operation string) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		return "", ""
	}

	switch parts[1] {
	case "login":
		return "", "login"
	case "export":
		return "", "export"
	case "audit":
		return "", "audit"
	case "table":
		if len(parts) == 3 {
			return "", "table_" + parts[2]
		}
		return "", ""
	}

	name := domain.DatasetName(parts[1])
	if name != domain.DatasetInstar && name != domain.DatasetAdMedia {
		return "", ""
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodDelete:
		operation = string(domain.AuditDelete)
	case len(parts) == 3 && parts[2] == "meses":
		operation = "list_months"
	case len(parts) == 3 && parts[2] == "append":
		operation = string(domain.AuditAppend)
	case len(parts) == 3 && parts[2] == "import":
		operation = string(domain.AuditImport)
	}
	return string(name), operation
}

// requestFields monta os campos comuns aos logs de uma requisição
func requestFields(r *http.Request) log.Fields {
	fields := log.Fields{
		"correlation_id": log.GetCorrelationID(r.Context()),
		"method":         r.Method,
		"path":           r.URL.Path,
	}
	dataset, operation := requestOperation(r)
	if dataset != "" {
		fields["dataset"] = dataset
	}
	if operation != "" {
		fields["operation"] = operation
	}
	return fields
}

// LoggingMiddleware registra o início e o fim de cada requisição
func LoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, correlationID := log.WithCorrelationID(r.Context(), r.Header.Get(CorrelationIDHeader))
			r = r.WithContext(ctx)
			w.Header().Set(CorrelationIDHeader, correlationID)

			fields := requestFields(r)
			log.L.WithFields(fields).WithFields(log.Fields{
				"remote_addr":    r.RemoteAddr,
				"query":          r.URL.RawQuery,
				"user_agent":     r.UserAgent(),
				"content_type":   r.Header.Get("Content-Type"),
				"content_length": r.ContentLength,
			}).Info("→ Requisição iniciada")

			lrw := newLoggingResponseWriter(w)
			start := time.Now()

			next.ServeHTTP(lrw, r)

			elapsed := time.Since(start)
			logger := log.L.WithFields(fields).WithFields(log.Fields{
				"status_code":   lrw.statusCode,
				"duration_ms":   elapsed.Milliseconds(),
				"bytes_written": lrw.written,
			})

			msg := fmt.Sprintf("%s Requisição finalizada em %s", statusSymbol(lrw.statusCode), formatDuration(elapsed))
			switch {
			case lrw.statusCode >= 500:
				logger.Error(msg)
			case lrw.statusCode >= 400:
				logger.Warn(msg)
			default:
				logger.Info(msg)
			}

			if elapsed > slowRequest {
				logger.Warnf("⚠ Requisição lenta: %s %s", r.Method, r.URL.Path)
			}
		})
	}
}

func statusSymbol(code int) string {
	if code >= 400 {
		return "✗"
	}
	return "✓"
}

// formatDuration formata a duração de forma humana
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%d µs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2f s", d.Seconds())
	}
}

// loggingResponseWriter guarda o status e o volume escrito na resposta
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.written += int64(n)
	return n, err
}

// Flush repassa o flush para a exportação em CSV ir saindo aos poucos
func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// LogPanicMiddleware transforma um panic em 500 e registra a pilha
func LogPanicMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}

				stack := string(debug.Stack())
				logger := log.L.WithFields(requestFields(r)).WithField("error", fmt.Sprint(err))
				if log.IsDevelopment() {
					logger.Error("❌ PANIC na aplicação")
					fmt.Fprintf(os.Stderr, "\n=== STACK TRACE ===\n%s\n", stack)
				} else {
					logger.WithField("stack_trace", stack).Error("Erro não tratado na aplicação")
				}

				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Error interno del servidor", nil)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
