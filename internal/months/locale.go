package months

import (
	"strings"
	"time"
)

// Locale contém os nomes completos e abreviados dos meses, de janeiro a dezembro
type Locale struct {
	Full [12]string
	Abbr [12]string
}

var Spanish = Locale{
	Full: [12]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	},
	Abbr: [12]string{
		"Ene", "Feb", "Mar", "Abr", "May", "Jun",
		"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
	},
}

func (l Locale) fullMonth(name string) (time.Month, bool) {
	return lookup(l.Full, name)
}

func (l Locale) abbrMonth(name string) (time.Month, bool) {
	return lookup(l.Abbr, name)
}

func lookup(names [12]string, name string) (time.Month, bool) {
	for i, candidate := range names {
		if strings.EqualFold(candidate, name) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}
