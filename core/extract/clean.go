package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	artifactPattern = regexp.MustCompile(`\b[A-Za-z0-9]{2,5}\.\d+\.\d+\b`)
	spacePattern    = regexp.MustCompile(`\s+`)
	punctPattern    = regexp.MustCompile(`\s+([,.;:!?])`)

	entities = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
		"&lt;", "<",
		"&gt;", ">",
	)
)

// Clean strips markup and reference artifacts from a verse fragment.
// Tags are removed before entities are decoded, so escaped markup survives as text.
func Clean(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = entities.Replace(s)
	s = artifactPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return punctPattern.ReplaceAllString(s, "$1")
}

// numericSample is the smallest collection the numeric ratio is judged on.
// Shorter collections only need one entry with letters.
const numericSample = 3

// maxNumericRatio is the share of numeric-only entries at which a collection
// is considered verse-number noise.
const maxNumericRatio = 0.3

// Plausible reports whether verses looks like real text: at least one entry
// contains a letter, and numeric-only entries stay under 30% of the collection.
func Plausible(verses []string) bool {
	if len(verses) == 0 {
		return false
	}

	letters, numeric := false, 0
	for _, v := range verses {
		v = strings.TrimSpace(v)
		if isNumeric(v) {
			numeric++
			continue
		}
		if !letters && strings.IndexFunc(v, unicode.IsLetter) >= 0 {
			letters = true
		}
	}
	if !letters {
		return false
	}
	if len(verses) < numericSample {
		return true
	}
	return float64(numeric)/float64(len(verses)) < maxNumericRatio
}
