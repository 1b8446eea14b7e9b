package historical

import (
	"errors"
	"fmt"
	"time"

	"github.com/vfg2006/historico-admin-api/internal/months"
)

var ErrValidation = errors.New("requisição inválida")

// ValidationError é um problema na entrada do usuário. Message vai para o
// cliente como está, em espanhol como o restante da interface.
type ValidationError struct {
	Field   string
	Message string
	Details any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// monthsError converte um rótulo inválido da requisição em erro de validação
var example = months.YearMonth{Year: 2024, Month: time.January}

func monthsError(format *months.Format, err error) error {
	var formatErr *months.FormatError
	if errors.As(err, &formatErr) {
		return &ValidationError{
			Field:   "months",
			Message: fmt.Sprintf("mes inválido %q, use el formato %q o %q", formatErr.Label, format.Format(example), example),
			Details: formatErr.Label,
		}
	}
	return err
}
