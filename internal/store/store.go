// Package store provides the persistent tier of the chapter cache.
//
// Three backends share one contract: sqlite (default, shared file), pebble
// (embedded LSM key-value store) and memory (tests, ephemeral runs). Every
// Put is an idempotent upsert keyed by (book, chapter, version).
package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/internal/cache"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

// Entry is one stored chapter.
type Entry struct {
	Key       cache.Key `json:"key"`
	Verses    []string  `json:"verses"`
	Digest    string    `json:"digest"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Backend is a persistent chapter store.
type Backend interface {
	cache.Store

	// List calls fn for every entry in key order until fn returns an error.
	List(ctx context.Context, fn func(Entry) error) error

	// Count returns the number of stored chapters.
	Count(ctx context.Context) (int, error)

	// Name returns the backend name.
	Name() string

	Close() error
}

// Open opens the named backend at path. path is ignored for memory.
func Open(backend, path string) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch strings.ToLower(backend) {
	case BackendSQLite, "":
		var s *SQLite
		s, err = OpenSQLite(path)
		b = s
	case BackendPebble:
		var p *Pebble
		p, err = OpenPebble(path)
		b = p
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, errors.NewValidation("cache.backend", fmt.Sprintf("unknown backend %q", backend))
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Digest returns the hex blake3 digest of the JSON encoding of verses.
func Digest(verses []string) string {
	payload, _ := json.Marshal(verses)
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// NewEntry builds an Entry stamped with the current time.
func NewEntry(key cache.Key, verses []string) Entry {
	return Entry{
		Key:       key,
		Verses:    verses,
		Digest:    Digest(verses),
		UpdatedAt: time.Now().UTC(),
	}
}

// Verify reports whether e's digest matches its verses.
func (e Entry) Verify() bool {
	return e.Digest == Digest(e.Verses)
}
