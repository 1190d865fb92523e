package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	lerrors "github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/cache"
)

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	sq, err := OpenSQLite(filepath.Join(dir, "nested", "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	pb, err := OpenPebble(filepath.Join(dir, "pebble"))
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	backends := map[string]Backend{
		BackendSQLite: sq,
		BackendPebble: pb,
		BackendMemory: NewMemory(),
	}
	t.Cleanup(func() {
		for _, b := range backends {
			b.Close()
		}
	})
	return backends
}

var (
	genesis1  = cache.Key{Book: "gn", Chapter: 1, Version: version.NVI}
	genesis2  = cache.Key{Book: "gn", Chapter: 2, Version: version.NVI}
	genesis10 = cache.Key{Book: "gn", Chapter: 10, Version: version.ACF}
	job1      = cache.Key{Book: "jb", Chapter: 1, Version: version.NVI}
)

func TestBackendGetPut(t *testing.T) {
	ctx := context.Background()
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if b.Name() != name {
				t.Errorf("Name() = %q", b.Name())
			}
			if _, ok, err := b.Get(ctx, genesis1); ok || err != nil {
				t.Fatalf("Get on empty store = %v, %v", ok, err)
			}

			want := []string{"No princípio Deus criou os céus e a terra.", "Era a terra sem forma e vazia"}
			if err := b.Put(ctx, genesis1, want); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, ok, err := b.Get(ctx, genesis1)
			if err != nil || !ok {
				t.Fatalf("Get = %v, %v", ok, err)
			}
			if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
				t.Errorf("Get = %q", got)
			}
		})
	}
}

func TestBackendUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				if err := b.Put(ctx, genesis1, []string{"first"}); err != nil {
					t.Fatalf("Put #%d: %v", i, err)
				}
			}
			if err := b.Put(ctx, genesis1, []string{"second"}); err != nil {
				t.Fatalf("Put: %v", err)
			}

			n, err := b.Count(ctx)
			if err != nil || n != 1 {
				t.Errorf("Count = %d, %v; want 1", n, err)
			}
			got, _, _ := b.Get(ctx, genesis1)
			if len(got) != 1 || got[0] != "second" {
				t.Errorf("Get after upsert = %q", got)
			}
		})
	}
}

func TestBackendListOrder(t *testing.T) {
	ctx := context.Background()
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []cache.Key{job1, genesis10, genesis2, genesis1} {
				if err := b.Put(ctx, k, []string{k.String()}); err != nil {
					t.Fatalf("Put %s: %v", k, err)
				}
			}

			var keys []cache.Key
			err := b.List(ctx, func(e Entry) error {
				if !e.Verify() {
					t.Errorf("entry %s fails digest check", e.Key)
				}
				if e.UpdatedAt.IsZero() {
					t.Errorf("entry %s has no timestamp", e.Key)
				}
				keys = append(keys, e.Key)
				return nil
			})
			if err != nil {
				t.Fatalf("List: %v", err)
			}

			want := []cache.Key{genesis1, genesis2, genesis10, job1}
			if len(keys) != len(want) {
				t.Fatalf("List returned %v", keys)
			}
			for i := range want {
				if keys[i] != want[i] {
					t.Errorf("List[%d] = %s, want %s", i, keys[i], want[i])
				}
			}
		})
	}
}

func TestBackendListStopsOnError(t *testing.T) {
	ctx := context.Background()
	stop := errors.New("stop")
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			b.Put(ctx, genesis1, []string{"a"})
			b.Put(ctx, genesis2, []string{"b"})

			calls := 0
			err := b.List(ctx, func(Entry) error {
				calls++
				return stop
			})
			if !errors.Is(err, stop) || calls != 1 {
				t.Errorf("List = %v after %d calls", err, calls)
			}
		})
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, job1, []string{"Havia um homem na terra de Uz"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got, ok, _ := s.Get(ctx, job1); !ok || len(got) != 1 {
		t.Errorf("reopened Get = %v, %v", got, ok)
	}
}

func TestPebbleKeyRoundTrip(t *testing.T) {
	raw := pebbleKey(genesis10)
	if string(raw) != "chapter/gn/010/acf" {
		t.Errorf("pebbleKey = %q", raw)
	}
	k, err := parsePebbleKey(raw)
	if err != nil || k != genesis10 {
		t.Errorf("parsePebbleKey = %v, %v", k, err)
	}
	if _, err := parsePebbleKey([]byte("chapter/gn")); err == nil {
		t.Error("short key should fail")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
		want    string
		wantErr bool
	}{
		{"", filepath.Join(dir, "default.db"), BackendSQLite, false},
		{"SQLite", filepath.Join(dir, "upper.db"), BackendSQLite, false},
		{"pebble", filepath.Join(dir, "pb"), BackendPebble, false},
		{"memory", "", BackendMemory, false},
		{"redis", "", "", true},
		{"sqlite", "", "", true},
	}
	for _, tt := range tests {
		b, err := Open(tt.backend, tt.path)
		if tt.wantErr {
			if !lerrors.Is(err, lerrors.ErrInvalidInput) {
				t.Errorf("Open(%q, %q) error = %v, want invalid input", tt.backend, tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Open(%q) = %v", tt.backend, err)
			continue
		}
		if b.Name() != tt.want {
			t.Errorf("Open(%q).Name() = %q, want %q", tt.backend, b.Name(), tt.want)
		}
		b.Close()
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]string{"a", "b"})
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if a != Digest([]string{"a", "b"}) {
		t.Error("digest is not deterministic")
	}
	if a == Digest([]string{"ab"}) {
		t.Error("digest should depend on verse boundaries")
	}

	e := NewEntry(genesis1, []string{"x"})
	e.Verses = []string{"tampered"}
	if e.Verify() {
		t.Error("Verify should fail after tampering")
	}
}
