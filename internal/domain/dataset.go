// Package domain contém as estruturas de dados do domínio da aplicação
package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vfg2006/historico-admin-api/internal/months"
)

// DatasetName identifica um dos datasets históricos
type DatasetName string

const (
	DatasetInstar  DatasetName = "instar"
	DatasetAdMedia DatasetName = "admedia"
)

// DatasetNames lista os datasets na ordem em que aparecem na interface
var DatasetNames = []DatasetName{DatasetInstar, DatasetAdMedia}

func ParseDatasetName(s string) (DatasetName, error) {
	name := DatasetName(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DatasetNames {
		if name == known {
			return name, nil
		}
	}
	return "", fmt.Errorf("dataset desconhecido: %q", s)
}

var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidColumnName informa se o nome pode ser usado como identificador de coluna
func ValidColumnName(name string) bool {
	return columnPattern.MatchString(name)
}

// Dataset descreve onde fica a tabela de um dataset e como o mês é gravado.
// É montado uma vez na inicialização e nunca alterado.
type Dataset struct {
	Name        DatasetName
	Table       TableRef
	MonthColumn string
	Format      *months.Format
}

// QuotedMonthColumn retorna a coluna do mês pronta para o SQL
func (d Dataset) QuotedMonthColumn() string {
	return QuoteIdentifier(d.MonthColumn)
}

// QuoteIdentifier envolve um identificador com crases
func QuoteIdentifier(name string) string {
	return "`" + name + "`"
}
