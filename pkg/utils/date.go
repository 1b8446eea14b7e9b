package utils

import "time"

// FileTimestamp formata o instante em UTC como YYYYMMDDHHMMSS, para nomes de arquivo
func FileTimestamp(t time.Time) string {
	return t.UTC().Format("20060102150405")
}
