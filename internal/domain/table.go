package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidTableRef = errors.New("referência de tabela inválida")

var (
	tableRefPattern  = regexp.MustCompile(`^[A-Za-z0-9\-]+\.[A-Za-z0-9_]+\.[A-Za-z0-9_\$]+$`)
	tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// TableRef é a referência completa project.dataset.table
type TableRef struct {
	ProjectID string
	DatasetID string
	TableID   string
}

// ParseTableRef valida uma referência completa informada pelo usuário
func ParseTableRef(s string) (TableRef, error) {
	candidate := strings.TrimSpace(s)
	if !tableRefPattern.MatchString(candidate) {
		return TableRef{}, fmt.Errorf("%w: %q (use project.dataset.table com letras, números, '_', '-' ou '$')", ErrInvalidTableRef, s)
	}

	parts := strings.SplitN(candidate, ".", 3)
	return TableRef{ProjectID: parts[0], DatasetID: parts[1], TableID: parts[2]}, nil
}

// ValidTableName informa se o nome serve para uma tabela nova (temporária)
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

func (t TableRef) String() string {
	return fmt.Sprintf("%s.%s.%s", t.ProjectID, t.DatasetID, t.TableID)
}

// Quoted retorna a referência pronta para o SQL
func (t TableRef) Quoted() string {
	return QuoteIdentifier(t.String())
}

// Prefix retorna "project.dataset."
func (t TableRef) Prefix() string {
	return fmt.Sprintf("%s.%s.", t.ProjectID, t.DatasetID)
}

// Sibling retorna uma tabela no mesmo project e dataset
func (t TableRef) Sibling(table string) TableRef {
	return TableRef{ProjectID: t.ProjectID, DatasetID: t.DatasetID, TableID: table}
}

// TableInfo é o resumo de uma tabela no warehouse
type TableInfo struct {
	Table    string `json:"table"`
	RowCount int64  `json:"row_count"`
}

// Column descreve uma coluna do schema de uma tabela
type Column struct {
	Name     string
	Type     string
	Repeated bool
}
