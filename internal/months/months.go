// Package months converte os rótulos de mês gravados no warehouse em chaves
// canônicas ordenáveis (ano, mês) e vice-versa.
//
// Cada dataset grava o mês num formato diferente, então o parser é genérico e
// parametrizado por um Format: um layout de armazenamento, layouts alternativos
// aceitos na entrada e um Locale com os nomes dos meses.
package months

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrFormat é a causa de todo FormatError
var ErrFormat = errors.New("formato de mês inválido")

// FormatError indica um rótulo que não corresponde ao formato do dataset
type FormatError struct {
	Format string
	Label  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: rótulo %q inválido para o formato %s: %s", ErrFormat, e.Label, e.Format, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// YearMonth é a chave canônica de um mês
type YearMonth struct {
	Year  int
	Month time.Month
}

// Key retorna um inteiro que preserva a ordem cronológica
func (ym YearMonth) Key() int {
	return ym.Year*12 + int(ym.Month) - 1
}

func (ym YearMonth) Before(other YearMonth) bool {
	return ym.Key() < other.Key()
}

// String retorna o formato ISO YYYY-MM
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Order define a direção da ordenação cronológica
type Order int

const (
	Ascending Order = iota
	Descending
)

// ParseOrder aceita "", "asc" e "desc"
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("ordenação inválida: %q", s)
	}
}

// ISOLayout é aceito como entrada por todos os formatos
const ISOLayout = "{YYYY}-{MM}"

var placeholderPattern = regexp.MustCompile(`\{(YYYY|MM|Month|Mon)\}`)

var placeholderRegexps = map[string]string{
	"YYYY":  `(?P<YYYY>\d{4})`,
	"MM":    `(?P<MM>\d{1,2})`,
	"Month": `(?P<Month>\p{L}+)`,
	"Mon":   `(?P<Mon>\p{L}+)`,
}

type layout struct {
	raw string
	re  *regexp.Regexp
}

func compileLayout(raw string) (layout, error) {
	var b strings.Builder
	b.WriteString(`(?i)^`)

	seen := make(map[string]bool)
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(raw, -1) {
		b.WriteString(literalPattern(raw[last:loc[0]]))

		token := raw[loc[2]:loc[3]]
		if seen[token] {
			return layout{}, fmt.Errorf("placeholder {%s} repetido no layout %q", token, raw)
		}
		seen[token] = true

		b.WriteString(placeholderRegexps[token])
		last = loc[1]
	}
	b.WriteString(literalPattern(raw[last:]))
	b.WriteString(`$`)

	if !seen["YYYY"] {
		return layout{}, fmt.Errorf("layout %q não contém {YYYY}", raw)
	}
	if !seen["MM"] && !seen["Month"] && !seen["Mon"] {
		return layout{}, fmt.Errorf("layout %q não contém {MM}, {Month} ou {Mon}", raw)
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return layout{}, fmt.Errorf("layout %q: %w", raw, err)
	}

	return layout{raw: raw, re: re}, nil
}

// literalPattern escapa o texto literal do layout; espaços aceitam qualquer
// sequência de brancos
func literalPattern(s string) string {
	parts := strings.Split(s, " ")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return strings.Join(parts, `\s+`)
}

// Format descreve como um dataset grava o mês
type Format struct {
	name    string
	locale  Locale
	stored  layout
	aliases []layout
}

// NewFormat compila o layout de armazenamento e os layouts alternativos.
// ISOLayout é sempre aceito na entrada.
func NewFormat(name string, locale Locale, stored string, aliases ...string) (*Format, error) {
	storedLayout, err := compileLayout(stored)
	if err != nil {
		return nil, err
	}

	f := &Format{
		name:   name,
		locale: locale,
		stored: storedLayout,
	}

	hasISO := stored == ISOLayout
	for _, alias := range aliases {
		if alias == ISOLayout {
			hasISO = true
		}
		compiled, err := compileLayout(alias)
		if err != nil {
			return nil, err
		}
		f.aliases = append(f.aliases, compiled)
	}

	if !hasISO {
		iso, _ := compileLayout(ISOLayout)
		f.aliases = append(f.aliases, iso)
	}

	return f, nil
}

// MustFormat é como NewFormat mas entra em pânico com layouts inválidos
func MustFormat(name string, locale Locale, stored string, aliases ...string) *Format {
	f, err := NewFormat(name, locale, stored, aliases...)
	if err != nil {
		panic(err)
	}
	return f
}

var (
	// Instar grava o mês como "Enero/2024" na coluna Mes_Anio
	Instar = MustFormat("instar", Spanish, "{Month}/{YYYY}")

	// AdMedia grava o mês como "2024 01 Ene" na coluna Mes. A interface mostra "Ene/2024".
	AdMedia = MustFormat("admedia", Spanish, "{YYYY} {MM} {Mon}", "{Mon}/{YYYY}", "{YYYY} {MM}")
)

func (f *Format) Name() string {
	return f.name
}

// StoredLayout retorna o layout usado na coluna do warehouse
func (f *Format) StoredLayout() string {
	return f.stored.raw
}

// Parse converte um rótulo (armazenado ou alternativo) na chave canônica
func (f *Format) Parse(label string) (YearMonth, error) {
	ym, _, err := f.parse(label)
	return ym, err
}

// parse também informa se o rótulo já estava no layout de armazenamento
func (f *Format) parse(label string) (YearMonth, bool, error) {
	raw := strings.TrimSpace(label)
	if raw == "" {
		return YearMonth{}, false, &FormatError{Format: f.name, Label: label, Reason: "rótulo vazio"}
	}

	if m := f.stored.re.FindStringSubmatch(raw); m != nil {
		ym, err := f.extract(f.stored, m, label)
		return ym, err == nil, err
	}

	for _, alias := range f.aliases {
		if m := alias.re.FindStringSubmatch(raw); m != nil {
			ym, err := f.extract(alias, m, label)
			return ym, false, err
		}
	}

	return YearMonth{}, false, &FormatError{
		Format: f.name,
		Label:  label,
		Reason: fmt.Sprintf("esperado %q", f.stored.raw),
	}
}

func (f *Format) extract(l layout, match []string, label string) (YearMonth, error) {
	fail := func(reason string) (YearMonth, error) {
		return YearMonth{}, &FormatError{Format: f.name, Label: label, Reason: reason}
	}

	var ym YearMonth
	var month time.Month

	for i, group := range l.re.SubexpNames() {
		value := match[i]
		switch group {
		case "YYYY":
			year, err := strconv.Atoi(value)
			if err != nil || year < 1 {
				return fail("ano inválido")
			}
			ym.Year = year

		case "MM":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > 12 {
				return fail("mês numérico fora do intervalo 01-12")
			}
			if month != 0 && month != time.Month(n) {
				return fail("mês numérico não confere com o nome do mês")
			}
			month = time.Month(n)

		case "Month", "Mon":
			var m time.Month
			var ok bool
			if group == "Month" {
				m, ok = f.locale.fullMonth(value)
			} else {
				m, ok = f.locale.abbrMonth(value)
			}
			if !ok {
				return fail(fmt.Sprintf("nome de mês desconhecido %q", value))
			}
			if month != 0 && month != m {
				return fail("nome do mês não confere com o mês numérico")
			}
			month = m
		}
	}

	ym.Month = month
	return ym, nil
}

// Format renderiza a chave no layout de armazenamento
func (f *Format) Format(ym YearMonth) string {
	return placeholderPattern.ReplaceAllStringFunc(f.stored.raw, func(token string) string {
		switch token {
		case "{YYYY}":
			return fmt.Sprintf("%04d", ym.Year)
		case "{MM}":
			return fmt.Sprintf("%02d", int(ym.Month))
		case "{Month}":
			return f.locale.Full[ym.Month-1]
		case "{Mon}":
			return f.locale.Abbr[ym.Month-1]
		}
		return token
	})
}

// SortKey retorna a chave ordenável do rótulo
func (f *Format) SortKey(label string) (int, error) {
	ym, err := f.Parse(label)
	if err != nil {
		return 0, err
	}
	return ym.Key(), nil
}

// Normalize prepara rótulos vindos da interface para serem usados como
// parâmetro de consulta. Rótulos já no layout de armazenamento são mantidos
// como vieram (sem espaços nas bordas), os demais são renderizados no layout de
// armazenamento. Brancos são descartados e meses repetidos aparecem uma vez só.
func (f *Format) Normalize(labels []string) ([]string, error) {
	seen := make(map[int]bool, len(labels))
	normalized := make([]string, 0, len(labels))

	for _, label := range labels {
		raw := strings.TrimSpace(label)
		if raw == "" {
			continue
		}

		ym, isStored, err := f.parse(raw)
		if err != nil {
			return nil, err
		}
		if seen[ym.Key()] {
			continue
		}
		seen[ym.Key()] = true

		if isStored {
			normalized = append(normalized, raw)
		} else {
			normalized = append(normalized, f.Format(ym))
		}
	}

	return normalized, nil
}

// Sort ordena cronologicamente os rótulos lidos do warehouse, mantendo a
// primeira ocorrência de cada mês. Qualquer rótulo inválido interrompe a
// ordenação com FormatError.
func (f *Format) Sort(labels []string, order Order) ([]string, error) {
	type entry struct {
		label string
		key   int
	}

	seen := make(map[int]bool, len(labels))
	entries := make([]entry, 0, len(labels))

	for _, label := range labels {
		raw := strings.TrimSpace(label)
		if raw == "" {
			continue
		}

		ym, err := f.Parse(raw)
		if err != nil {
			return nil, err
		}
		if seen[ym.Key()] {
			continue
		}
		seen[ym.Key()] = true
		entries = append(entries, entry{label: raw, key: ym.Key()})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if order == Descending {
			return entries[i].key > entries[j].key
		}
		return entries[i].key < entries[j].key
	})

	sorted := make([]string, len(entries))
	for i, e := range entries {
		sorted[i] = e.label
	}

	return sorted, nil
}
