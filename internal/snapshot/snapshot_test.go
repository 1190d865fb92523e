package snapshot

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/cache"
	"github.com/FocuswithJustin/lectio/internal/store"
)

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	ctx := context.Background()
	for _, e := range []struct {
		key    cache.Key
		verses []string
	}{
		{cache.Key{Book: "gn", Chapter: 1, Version: version.NVI}, []string{"No princípio Deus criou os céus e a terra."}},
		{cache.Key{Book: "sl", Chapter: 23, Version: version.ARA}, []string{"O Senhor é o meu pastor;", "nada me faltará."}},
		{cache.Key{Book: "jb", Chapter: 1, Version: version.KJV}, []string{"There was a man in the land of Uz"}},
	} {
		if err := m.Put(ctx, e.key, e.verses); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)

	var buf bytes.Buffer
	m, err := Export(ctx, src, &buf, Options{Backend: "memory"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if m.Entries != 3 || m.Format != Format || len(m.Digest) != 64 {
		t.Errorf("manifest = %+v", m)
	}

	dst := store.NewMemory()
	report, err := Import(ctx, &buf, dst, Options{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Imported != 3 || report.Skipped != 0 || report.Manifest.Backend != "memory" {
		t.Errorf("report = %+v", report)
	}
	got, ok, _ := dst.Get(ctx, cache.Key{Book: "sl", Chapter: 23, Version: version.ARA})
	if !ok || len(got) != 2 || got[1] != "nada me faltará." {
		t.Errorf("imported verses = %q", got)
	}
}

func TestExportFileImportFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "cache.tar.xz")

	if _, err := ExportFile(ctx, seeded(t), path, Options{}); err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	dst := store.NewMemory()
	report, err := ImportFile(ctx, path, dst, Options{})
	if err != nil || report.Imported != 3 {
		t.Fatalf("ImportFile = %+v, %v", report, err)
	}
	if n, _ := dst.Count(ctx); n != 3 {
		t.Errorf("Count = %d", n)
	}
}

func TestExportMaxBytes(t *testing.T) {
	var buf bytes.Buffer
	_, err := Export(context.Background(), seeded(t), &buf, Options{MaxBytes: 64})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("err = %v, want size validation error", err)
	}
}

// archive builds a tar.xz from name/content pairs.
func archive(t *testing.T, members ...string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	xzw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	tw := tar.NewWriter(xzw)
	for i := 0; i+1 < len(members); i += 2 {
		data := []byte(members[i+1])
		if err := tw.WriteHeader(&tar.Header{Name: members[i], Mode: 0o644, Size: int64(len(data))}); err != nil {
			t.Fatal(err)
		}
		tw.Write(data)
	}
	tw.Close()
	xzw.Close()
	return &buf
}

func manifestFor(t *testing.T, entries string, n int) string {
	t.Helper()
	data, _ := json.Marshal(Manifest{Format: Format, Entries: n, Digest: digest([]byte(entries))})
	return string(data)
}

func entryLine(t *testing.T, e store.Entry) string {
	t.Helper()
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	return string(data) + "\n"
}

func TestImportRejects(t *testing.T) {
	good := entryLine(t, store.NewEntry(cache.Key{Book: "gn", Chapter: 1, Version: version.NVI}, []string{"No princípio"}))

	tests := []struct {
		name    string
		archive *bytes.Buffer
	}{
		{"tampered entries", archive(t, EntriesFile, good+good, ManifestFile, manifestFor(t, good, 1))},
		{"count mismatch", archive(t, EntriesFile, good, ManifestFile, manifestFor(t, good, 2))},
		{"missing manifest", archive(t, EntriesFile, good)},
		{"wrong format", archive(t, EntriesFile, good, ManifestFile, `{"format":"other","entries":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Import(context.Background(), tt.archive, store.NewMemory(), Options{}); err == nil {
				t.Error("Import succeeded")
			}
		})
	}

	if _, err := Import(context.Background(), strings.NewReader("not xz"), store.NewMemory(), Options{}); err == nil {
		t.Error("Import of garbage succeeded")
	}
}

func TestImportSkipsInvalidEntries(t *testing.T) {
	good := store.NewEntry(cache.Key{Book: "gn", Chapter: 1, Version: version.NVI}, []string{"No princípio"})
	tampered := store.NewEntry(cache.Key{Book: "gn", Chapter: 2, Version: version.NVI}, []string{"original"})
	tampered.Verses = []string{"edited"}
	unknownBook := store.NewEntry(cache.Key{Book: "zz", Chapter: 1, Version: version.NVI}, []string{"x"})
	unknownVersion := store.NewEntry(cache.Key{Book: "gn", Chapter: 1, Version: "xyz"}, []string{"x"})

	entries := entryLine(t, good) + entryLine(t, tampered) + entryLine(t, unknownBook) + entryLine(t, unknownVersion)
	dst := store.NewMemory()
	report, err := Import(context.Background(), archive(t, ManifestFile, manifestFor(t, entries, 4), EntriesFile, entries), dst, Options{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Imported != 1 || report.Skipped != 3 {
		t.Errorf("report = %+v", report)
	}
}
