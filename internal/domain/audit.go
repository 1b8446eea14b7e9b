package domain

import "time"

// AuditOperation identifica uma operação que altera dados no warehouse
type AuditOperation string

const (
	AuditDelete AuditOperation = "delete"
	AuditAppend AuditOperation = "append"
	AuditImport AuditOperation = "import"
)

// AuditEntry registra uma operação de escrita executada pelo painel
type AuditEntry struct {
	ID            string         `json:"id"`
	Dataset       DatasetName    `json:"dataset"`
	Operation     AuditOperation `json:"operation"`
	Months        []string       `json:"months"`
	SourceTable   string         `json:"source_table,omitempty"`
	TargetTable   string         `json:"target_table"`
	AffectedRows  int64          `json:"affected_rows"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
