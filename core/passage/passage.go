// Package passage parses human-entered reading plan references such as
// "Gênesis 1 - 3" or "Salmos 23" into a book code and chapter range.
package passage

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/lectio/core/canon"
	"github.com/FocuswithJustin/lectio/core/errors"
)

// Reference is a parsed passage.
type Reference struct {
	// BookName is the display name; the canonical name when the book is known.
	BookName string `json:"book_name"`

	// BookCode is the plan code (see canon.Book.Code).
	BookCode string `json:"book_code"`

	StartChapter int `json:"start_chapter"`
	EndChapter   int `json:"end_chapter"`
}

// Chapters returns every chapter in the range in ascending order.
func (r Reference) Chapters() []int {
	if r.EndChapter < r.StartChapter {
		return []int{}
	}
	out := make([]int, 0, r.EndChapter-r.StartChapter+1)
	for c := r.StartChapter; c <= r.EndChapter; c++ {
		out = append(out, c)
	}
	return out
}

// String renders the reference the way reading plans write it.
func (r Reference) String() string {
	if r.StartChapter == r.EndChapter {
		return fmt.Sprintf("%s %d", r.BookName, r.StartChapter)
	}
	return fmt.Sprintf("%s %d-%d", r.BookName, r.StartChapter, r.EndChapter)
}

// Default is returned when a passage cannot be parsed.
func Default() Reference {
	first := canon.First()
	return Reference{
		BookName:     first.Name,
		BookCode:     first.Code,
		StartChapter: 1,
		EndChapter:   1,
	}
}

// passageGrammar matches "<name> <int> [- <int>] [anything]".
// Examples: "Gênesis 1", "Gênesis 1 - 3", "1 Samuel 3-4", "Salmos 119:1-88"
//
//nolint:govet // participle grammar tags are not standard struct tags
type passageGrammar struct {
	Ordinal string   `@Int?`
	Words   []string `@Word+`
	Start   int      `@Int`
	End     *int     `( Dash @Int )?`
	Rest    []string `( @Int | @Word | @Dash | @Punct | @Other )*`
}

// passageLexer tokenizes passage strings. Word accepts any letter so accented
// pt-BR names ("Êxodo", "Cântico") stay a single token.
var passageLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `\p{L}[\p{L}\p{M}.']*`},
	{Name: "Dash", Pattern: `[-–—]`},
	{Name: "Punct", Pattern: `[:,;.]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `\S`},
})

var passageParser = participle.MustBuild[passageGrammar](
	participle.Lexer(passageLexer),
	participle.Elide("Whitespace"),
)

// Parse parses raw and never fails: unrecognized input yields Default().
// Only the first "/"-separated segment is considered.
func Parse(raw string) Reference {
	ref, _, err := parse(raw)
	if err != nil {
		return Default()
	}
	return ref
}

// ParseStrict is like Parse but reports unparseable input and unknown books.
func ParseStrict(raw string) (Reference, error) {
	ref, known, err := parse(raw)
	if err != nil {
		return Reference{}, err
	}
	if !known {
		return ref, errors.NewNotFound("book", ref.BookName)
	}
	return ref, nil
}

func parse(raw string) (Reference, bool, error) {
	segment, _, _ := strings.Cut(raw, "/")
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return Reference{}, false, errors.NewValidation("passage", "empty passage")
	}

	g, err := passageParser.ParseString("", segment)
	if err != nil {
		return Reference{}, false, errors.NewParse("passage", "", fmt.Sprintf("%q: %v", segment, err))
	}

	name := strings.Join(g.Words, " ")
	if g.Ordinal != "" {
		name = g.Ordinal + " " + name
	}

	start, end := g.Start, g.Start
	if g.End != nil {
		start, end = min(g.Start, *g.End), max(g.Start, *g.End)
	}
	start = max(start, 1)
	end = max(end, start)

	ref := Reference{
		BookName:     name,
		StartChapter: start,
		EndChapter:   end,
	}

	b, known := canon.ByName(name)
	if known {
		ref.BookName = b.Name
		ref.BookCode = b.Code
	} else {
		ref.BookCode, _ = canon.CodeForName(name)
	}
	return ref, known, nil
}
