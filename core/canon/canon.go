// Package canon holds the canonical table of Bible books used across lectio:
// display names (pt-BR), the short codes reading plans use, unique book IDs and
// OSIS identifiers.
package canon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Testament identifies which half of the canon a book belongs to.
type Testament string

const (
	OldTestament Testament = "OT"
	NewTestament Testament = "NT"
)

// Book describes one canonical book.
type Book struct {
	// Name is the display name in the source locale (e.g., "Gênesis").
	Name string `json:"name"`

	// Code is the short code used by reading plans (e.g., "gn"). Not unique.
	Code string `json:"code"`

	// ID is the unique identifier used for cache keys and provider lookups.
	ID string `json:"id"`

	// OSIS is the OSIS book identifier (e.g., "Gen").
	OSIS string `json:"osis"`

	// Chapters is the number of chapters in the Protestant canon.
	Chapters int `json:"chapters"`

	Testament Testament `json:"testament"`
}

// HasChapter reports whether n is a valid chapter of b.
func (b Book) HasChapter(n int) bool {
	return n >= 1 && n <= b.Chapters
}

var (
	byName = make(map[string]Book, len(books)+len(aliases))
	byID   = make(map[string]Book, len(books))
	byOSIS = make(map[string]Book, len(books))
)

func init() {
	for _, b := range books {
		byName[Fold(b.Name)] = b
		byID[b.ID] = b
		byOSIS[strings.ToLower(b.OSIS)] = b
	}
	for alias, name := range aliases {
		byName[alias] = byName[Fold(name)]
	}
}

// First returns the first book of the canon, used as the parse fallback.
func First() Book {
	return books[0]
}

// Books returns a copy of the table in canonical order.
func Books() []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}

// ByName looks a book up by display name, ignoring case, accents and repeated spaces.
func ByName(name string) (Book, bool) {
	b, ok := byName[Fold(name)]
	return b, ok
}

// CodeForName returns the plan code for a display name. Unmapped names fall back to
// their first two letters lower-cased; the second return is false in that case.
func CodeForName(name string) (string, bool) {
	if b, ok := ByName(name); ok {
		return b.Code, true
	}
	r := []rune(strings.ToLower(strings.TrimSpace(name)))
	if len(r) > 2 {
		r = r[:2]
	}
	return string(r), false
}

// ByID looks a book up by its unique ID.
func ByID(id string) (Book, bool) {
	b, ok := byID[strings.ToLower(strings.TrimSpace(id))]
	return b, ok
}

// ByOSIS looks a book up by OSIS identifier, case-insensitively.
func ByOSIS(osis string) (Book, bool) {
	b, ok := byOSIS[strings.ToLower(strings.TrimSpace(osis))]
	return b, ok
}

// Disambiguate resolves a plan code (plus an optional display name) to one book.
//
// Two codes are shared: "jo" (Jó and João) and "ez" (Esdras and Ezequiel).
// For "jo" a name folding to "jo" or "job" selects Job, anything else selects John.
// For "ez" a name starting with "esd" or equal to "ezra" selects Ezra, anything else
// selects Ezekiel. Unique IDs ("jb", "ed") and OSIS identifiers are accepted as-is.
func Disambiguate(code, name string) (Book, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	folded := Fold(name)

	switch code {
	case "jo":
		if folded == "jo" || folded == "job" {
			return byID["jb"], true
		}
		return byID["jo"], true
	case "ez":
		if strings.HasPrefix(folded, "esd") || folded == "ezra" {
			return byID["ed"], true
		}
		return byID["ez"], true
	}

	if b, ok := byID[code]; ok {
		return b, true
	}
	if b, ok := byOSIS[code]; ok {
		return b, true
	}
	if name != "" {
		if b, ok := ByName(name); ok {
			return b, true
		}
	}
	return Book{}, false
}

// Fold lower-cases s, strips diacritics and collapses whitespace.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
