package csvexport

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
)

type sliceRows struct {
	rows [][]bigquery.Value
	err  error
}

func (s *sliceRows) Next() ([]bigquery.Value, error) {
	if len(s.rows) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, iterator.Done
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value bigquery.Value
		want  string
	}{
		{name: "nulo", value: nil, want: ""},
		{name: "texto", value: "Campaña, 2024", want: "Campaña, 2024"},
		{name: "inteiro", value: int64(-42), want: "-42"},
		{name: "float", value: 0.1, want: "0.1"},
		{name: "float grande", value: 1e21, want: "1e+21"},
		{name: "bool", value: true, want: "true"},
		{name: "bytes", value: []byte("abc"), want: "YWJj"},
		{name: "timestamp", value: time.Date(2024, 1, 2, 3, 4, 5, 6000, time.FixedZone("BRT", -3*3600)), want: "2024-01-02T06:04:05.000006Z"},
		{name: "date", value: civil.Date{Year: 2024, Month: time.February, Day: 29}, want: "2024-02-29"},
		{name: "datetime", value: civil.DateTime{Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Time: civil.Time{Hour: 10, Minute: 30}}, want: "2024-01-01T10:30:00"},
		{name: "numeric", value: big.NewRat(12345, 100), want: "123.450000000"},
		{name: "repetido", value: []bigquery.Value{"a", int64(1), nil}, want: `["a",1,null]`},
		{name: "registro", value: map[string]bigquery.Value{"x": int64(1)}, want: `{"x":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer

	count, err := Write(&buf, []string{"Mes", "Campanha", "Cliques"}, &sliceRows{rows: [][]bigquery.Value{
		{"2024 01 Ene", "Lançamento \"verão\"", int64(10)},
		{"2024 01 Ene", "linha\nquebrada", nil},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	want := "Mes,Campanha,Cliques\r\n" +
		"2024 01 Ene,\"Lançamento \"\"verão\"\"\",10\r\n" +
		"2024 01 Ene,\"linha\r\nquebrada\",\r\n"
	assert.Equal(t, want, buf.String())
	assert.False(t, bytes.HasPrefix(buf.Bytes(), []byte("\xEF\xBB\xBF")))
}

func TestWrite_OnlyHeader(t *testing.T) {
	var buf bytes.Buffer

	count, err := Write(&buf, []string{"Mes_Anio"}, &sliceRows{})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, "Mes_Anio\r\n", buf.String())
}

func TestWrite_IteratorError(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("conexão perdida")

	count, err := Write(&buf, []string{"Mes"}, &sliceRows{
		rows: [][]bigquery.Value{{"Enero/2024"}},
		err:  boom,
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "Mes\r\nEnero/2024\r\n", buf.String())
}
