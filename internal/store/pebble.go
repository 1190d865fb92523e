package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/cache"
)

// chapterPrefix starts every chapter key: chapter/{book}/{chapter:%03d}/{version}.
// Chapters are zero padded so iteration follows chapter order.
const chapterPrefix = "chapter/"

// Pebble stores chapters in an embedded pebble database.
type Pebble struct {
	db   *pebble.DB
	path string
}

// pebbleValue is the JSON value stored under each chapter key.
type pebbleValue struct {
	Verses    []string `json:"verses"`
	Digest    string   `json:"digest"`
	UpdatedAt int64    `json:"updated_at"`
}

// OpenPebble opens (or creates) a pebble database at path.
func OpenPebble(path string) (*Pebble, error) {
	if path == "" {
		return nil, errors.NewValidation("cache.path", "pebble backend needs a path")
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	return &Pebble{db: db, path: path}, nil
}

func pebbleKey(key cache.Key) []byte {
	return []byte(fmt.Sprintf("%s%s/%03d/%s", chapterPrefix, key.Book, key.Chapter, key.Version))
}

func parsePebbleKey(raw []byte) (cache.Key, error) {
	parts := strings.Split(strings.TrimPrefix(string(raw), chapterPrefix), "/")
	if len(parts) != 3 {
		return cache.Key{}, fmt.Errorf("malformed key %q", raw)
	}
	chapter, err := strconv.Atoi(parts[1])
	if err != nil {
		return cache.Key{}, fmt.Errorf("malformed key %q: %w", raw, err)
	}
	return cache.Key{Book: parts[0], Chapter: chapter, Version: version.Code(parts[2])}, nil
}

func (p *Pebble) Name() string { return BackendPebble }

func (p *Pebble) Get(ctx context.Context, key cache.Key) ([]string, bool, error) {
	data, closer, err := p.db.Get(pebbleKey(key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewIO("get", p.path, err)
	}
	defer closer.Close()

	var v pebbleValue
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, errors.NewParse("json", p.path, fmt.Sprintf("value for %s: %v", key, err))
	}
	return v.Verses, true, nil
}

func (p *Pebble) Put(ctx context.Context, key cache.Key, verses []string) error {
	return p.put(NewEntry(key, verses))
}

func (p *Pebble) put(e Entry) error {
	data, err := json.Marshal(pebbleValue{Verses: e.Verses, Digest: e.Digest, UpdatedAt: e.UpdatedAt.UnixMilli()})
	if err != nil {
		return errors.Wrap(err, "encode verses")
	}
	if err := p.db.Set(pebbleKey(e.Key), data, pebble.Sync); err != nil {
		return errors.NewIO("set", p.path, err)
	}
	return nil
}

func (p *Pebble) List(ctx context.Context, fn func(Entry) error) error {
	prefix := []byte(chapterPrefix)
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: prefix})
	if err != nil {
		return errors.NewIO("iterate", p.path, err)
	}
	defer iter.Close()

	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		key, err := parsePebbleKey(iter.Key())
		if err != nil {
			return errors.NewParse("pebble", p.path, err.Error())
		}
		var v pebbleValue
		if err := json.Unmarshal(iter.Value(), &v); err != nil {
			return errors.NewParse("json", p.path, fmt.Sprintf("value for %s: %v", key, err))
		}
		e := Entry{Key: key, Verses: v.Verses, Digest: v.Digest, UpdatedAt: time.UnixMilli(v.UpdatedAt).UTC()}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (p *Pebble) Count(ctx context.Context) (int, error) {
	n := 0
	err := p.List(ctx, func(Entry) error {
		n++
		return nil
	})
	return n, err
}

func (p *Pebble) Close() error {
	return p.db.Close()
}
