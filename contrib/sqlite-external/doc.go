// Package sqliteexternal links the CGO SQLite driver (github.com/mattn/go-sqlite3)
// into lectio.
//
// The persistent chapter cache uses the pure Go driver by default. Build with
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/lectio
//
// to switch core/sqlite over to this driver. It is faster on large cache files
// at the cost of a C toolchain and harder cross-compilation.
package sqliteexternal
