// Package csvexport grava linhas do BigQuery em CSV (RFC 4180, CRLF, UTF-8 sem BOM)
package csvexport

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/api/iterator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RowIterator é satisfeito pelos cursores do repositório
type RowIterator interface {
	Next() ([]bigquery.Value, error)
}

type Encoder struct {
	w *csv.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return &Encoder{w: cw}
}

func (e *Encoder) WriteHeader(columns []string) error {
	return e.w.Write(columns)
}

func (e *Encoder) WriteRow(row []bigquery.Value) error {
	record := make([]string, len(row))
	for i, v := range row {
		field, err := FormatValue(v)
		if err != nil {
			return err
		}
		record[i] = field
	}
	return e.w.Write(record)
}

// Flush descarrega o buffer e retorna o primeiro erro de escrita
func (e *Encoder) Flush() error {
	e.w.Flush()
	return e.w.Error()
}

// Write grava o cabeçalho e todas as linhas do iterador. Retorna quantas linhas
// de dados foram escritas.
func Write(w io.Writer, header []string, rows RowIterator) (int64, error) {
	enc := NewEncoder(w)
	if err := enc.WriteHeader(header); err != nil {
		return 0, err
	}

	var count int64
	for {
		row, err := rows.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			_ = enc.Flush()
			return count, err
		}

		if err := enc.WriteRow(row); err != nil {
			return count, err
		}
		count++
	}

	return count, enc.Flush()
}

// FormatValue renderiza um valor do BigQuery como campo CSV. NULL vira vazio.
func FormatValue(v bigquery.Value) (string, error) {
	switch value := v.(type) {
	case nil:
		return "", nil
	case string:
		return value, nil
	case int64:
		return strconv.FormatInt(value, 10), nil
	case int:
		return strconv.Itoa(value), nil
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(value), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(value), nil
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano), nil
	case civil.Date:
		return value.String(), nil
	case civil.Time:
		return value.String(), nil
	case civil.DateTime:
		return value.String(), nil
	case *big.Rat:
		if value == nil {
			return "", nil
		}
		return bigquery.NumericString(value), nil
	case []bigquery.Value, map[string]bigquery.Value:
		encoded, err := json.Marshal(jsonValue(value))
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	default:
		return fmt.Sprint(value), nil
	}
}

// jsonValue prepara valores repetidos e registros para serialização
func jsonValue(v bigquery.Value) interface{} {
	switch value := v.(type) {
	case []bigquery.Value:
		out := make([]interface{}, len(value))
		for i, item := range value {
			out[i] = jsonValue(item)
		}
		return out
	case map[string]bigquery.Value:
		out := make(map[string]interface{}, len(value))
		for k, item := range value {
			out[k] = jsonValue(item)
		}
		return out
	case nil, string, int64, float64, bool:
		return value
	default:
		s, _ := FormatValue(value)
		return s
	}
}
