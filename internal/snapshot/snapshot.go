// Package snapshot exports and imports the persistent chapter cache as a
// tar.xz archive, so a warmed cache can be shipped to another host.
//
// An archive holds two members:
//
//	entries.jsonl  one store.Entry per line, in key order
//	manifest.json  entry count and the blake3 digest of entries.jsonl
package snapshot

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/lectio/core/canon"
	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/cache"
	"github.com/FocuswithJustin/lectio/internal/store"
)

// Member names inside a snapshot archive.
const (
	EntriesFile  = "entries.jsonl"
	ManifestFile = "manifest.json"
)

// Format identifies lectio snapshots in the manifest.
const Format = "lectio-snapshot/1"

// DefaultMaxBytes bounds the uncompressed entries member.
const DefaultMaxBytes = 512 << 20

// Manifest describes a snapshot.
type Manifest struct {
	Format    string    `json:"format"`
	Backend   string    `json:"backend,omitempty"`
	Entries   int       `json:"entries"`
	Bytes     int64     `json:"bytes"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
}

// Lister enumerates stored entries.
type Lister interface {
	List(ctx context.Context, fn func(store.Entry) error) error
}

// Options bounds a snapshot.
type Options struct {
	// MaxBytes caps the uncompressed entries member. Defaults to DefaultMaxBytes.
	MaxBytes int64

	// Backend is recorded in the manifest.
	Backend string
}

func (o Options) maxBytes() int64 {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return DefaultMaxBytes
}

// Export writes every entry of src to w as a tar.xz snapshot.
func Export(ctx context.Context, src Lister, w io.Writer, opts Options) (Manifest, error) {
	var entries bytes.Buffer
	count := 0
	enc := json.NewEncoder(&entries)
	err := src.List(ctx, func(e store.Entry) error {
		if err := enc.Encode(e); err != nil {
			return errors.Wrapf(err, "encode %s", e.Key)
		}
		if int64(entries.Len()) > opts.maxBytes() {
			return errors.NewValidation("snapshot", fmt.Sprintf("entries exceed %s", humanize.IBytes(uint64(opts.maxBytes()))))
		}
		count++
		return nil
	})
	if err != nil {
		return Manifest{}, err
	}

	m := Manifest{
		Format:    Format,
		Backend:   opts.Backend,
		Entries:   count,
		Bytes:     int64(entries.Len()),
		Digest:    digest(entries.Bytes()),
		CreatedAt: time.Now().UTC(),
	}
	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, errors.Wrap(err, "encode manifest")
	}

	xzw, err := xz.NewWriter(w)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "xz writer")
	}
	tw := tar.NewWriter(xzw)
	if err := writeMember(tw, EntriesFile, entries.Bytes(), m.CreatedAt); err != nil {
		return Manifest{}, err
	}
	if err := writeMember(tw, ManifestFile, manifest, m.CreatedAt); err != nil {
		return Manifest{}, err
	}
	if err := tw.Close(); err != nil {
		return Manifest{}, errors.Wrap(err, "close tar")
	}
	if err := xzw.Close(); err != nil {
		return Manifest{}, errors.Wrap(err, "close xz")
	}
	return m, nil
}

func writeMember(tw *tar.Writer, name string, data []byte, mod time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: mod,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "write header %s", name)
	}
	if _, err := tw.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return nil
}

// ImportReport summarizes an import.
type ImportReport struct {
	Manifest Manifest `json:"manifest"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
}

// Import reads a snapshot from r, checks it against its manifest and upserts
// every valid entry into dst. Entries whose digest does not match their
// verses, or whose book or version is unknown, are skipped.
func Import(ctx context.Context, r io.Reader, dst cache.Store, opts Options) (ImportReport, error) {
	var (
		report   ImportReport
		entries  []byte
		manifest []byte
	)

	xzr, err := xz.NewReader(r)
	if err != nil {
		return report, errors.NewParse("xz", "", err.Error())
	}
	err = iterate(tar.NewReader(xzr), func(hdr *tar.Header, content io.Reader) (bool, error) {
		var target *[]byte
		switch hdr.Name {
		case EntriesFile:
			target = &entries
		case ManifestFile:
			target = &manifest
		default:
			return false, nil
		}
		data, err := io.ReadAll(io.LimitReader(content, opts.maxBytes()+1))
		if err != nil {
			return false, errors.Wrapf(err, "read %s", hdr.Name)
		}
		if int64(len(data)) > opts.maxBytes() {
			return false, errors.NewValidation("snapshot", fmt.Sprintf("%s exceeds %s", hdr.Name, humanize.IBytes(uint64(opts.maxBytes()))))
		}
		*target = data
		return entries != nil && manifest != nil, nil
	})
	if err != nil {
		return report, err
	}
	if manifest == nil || entries == nil {
		return report, errors.NewParse("snapshot", "", "missing "+ManifestFile+" or "+EntriesFile)
	}

	if err := json.Unmarshal(manifest, &report.Manifest); err != nil {
		return report, errors.NewParse("json", ManifestFile, err.Error())
	}
	if report.Manifest.Format != Format {
		return report, errors.NewParse("snapshot", ManifestFile, fmt.Sprintf("unsupported format %q", report.Manifest.Format))
	}
	if got := digest(entries); got != report.Manifest.Digest {
		return report, errors.NewValidation("digest", fmt.Sprintf("entries digest %s does not match manifest %s", got, report.Manifest.Digest))
	}

	sc := bufio.NewScanner(bytes.NewReader(entries))
	sc.Buffer(make([]byte, 0, 64*1024), len(entries)+1)
	lines := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		lines++
		var e store.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return report, errors.NewParse("json", EntriesFile, fmt.Sprintf("line %d: %v", lines, err))
		}
		if !valid(e) {
			report.Skipped++
			continue
		}
		if err := dst.Put(ctx, e.Key, e.Verses); err != nil {
			return report, errors.Wrapf(err, "import %s", e.Key)
		}
		report.Imported++
	}
	if err := sc.Err(); err != nil {
		return report, errors.Wrap(err, "scan entries")
	}
	if lines != report.Manifest.Entries {
		return report, errors.NewValidation("entries", fmt.Sprintf("manifest lists %d entries, archive holds %d", report.Manifest.Entries, lines))
	}
	return report, nil
}

func valid(e store.Entry) bool {
	if len(e.Verses) == 0 || !e.Verify() {
		return false
	}
	if _, ok := canon.ByID(e.Key.Book); !ok {
		return false
	}
	if e.Key.Chapter < 1 {
		return false
	}
	return version.IsSupported(e.Key.Version)
}

// visitor is called for each archive member. Return true to stop.
type visitor func(hdr *tar.Header, content io.Reader) (stop bool, err error)

func iterate(tr *tar.Reader, visit visitor) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewParse("tar", "", err.Error())
		}
		stop, err := visit(hdr, tr)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ExportFile writes a snapshot to path, creating parent directories.
func ExportFile(ctx context.Context, src Lister, path string, opts Options) (Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Manifest{}, errors.NewIO("mkdir", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return Manifest{}, errors.NewIO("create", path, err)
	}
	m, err := Export(ctx, src, f, opts)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.NewIO("close", path, cerr)
	}
	if err != nil {
		os.Remove(path)
	}
	return m, err
}

// ImportFile reads a snapshot from path into dst.
func ImportFile(ctx context.Context, path string, dst cache.Store, opts Options) (ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportReport{}, errors.NewIO("open", path, err)
	}
	defer f.Close()
	return Import(ctx, f, dst, opts)
}
