// Package web embute a interface do painel no binário
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var files embed.FS

// Assets devolve os arquivos da interface com static/ como raiz
func Assets() (fs.FS, error) {
	return fs.Sub(files, "static")
}
