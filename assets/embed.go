// Package assets embeds the default clue catalog and the SQL migrations
// so the server runs without any files next to the binary.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed catalog.yaml migrations/*.sql
var FS embed.FS

// Catalog returns the raw bytes of the embedded default catalog.
func Catalog() ([]byte, error) {
	return FS.ReadFile("catalog.yaml")
}

// Migrations returns the embedded migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "migrations")
	if err != nil {
		// Only fails if the embed pattern above changes.
		panic(err)
	}
	return sub
}
