// Package version normalizes requested Bible translation identifiers to a fixed,
// closed set of supported codes.
package version

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/lectio/core/errors"
)

// Code is a supported translation code.
type Code string

// Supported translation codes.
const (
	NVI  Code = "nvi"  // Nova Versão Internacional
	ACF  Code = "acf"  // Almeida Corrigida Fiel
	ARA  Code = "ara"  // Almeida Revista e Atualizada
	ARC  Code = "arc"  // Almeida Revista e Corrigida
	NAA  Code = "naa"  // Nova Almeida Atualizada
	NTLH Code = "ntlh" // Nova Tradução na Linguagem de Hoje
	KJV  Code = "kjv"  // King James Version
	BBE  Code = "bbe"  // Bible in Basic English
	WEB  Code = "web"  // World English Bible
)

// Primary is the default translation when nothing else is configured.
const Primary = NVI

// Info describes a supported translation.
type Info struct {
	Code     Code   `json:"code"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

var supported = map[Code]Info{
	NVI:  {NVI, "Nova Versão Internacional", "pt"},
	ACF:  {ACF, "Almeida Corrigida Fiel", "pt"},
	ARA:  {ARA, "Almeida Revista e Atualizada", "pt"},
	ARC:  {ARC, "Almeida Revista e Corrigida", "pt"},
	NAA:  {NAA, "Nova Almeida Atualizada", "pt"},
	NTLH: {NTLH, "Nova Tradução na Linguagem de Hoje", "pt"},
	KJV:  {KJV, "King James Version", "en"},
	BBE:  {BBE, "Bible in Basic English", "en"},
	WEB:  {WEB, "World English Bible", "en"},
}

// synonyms collapse alternate spellings onto one code so they share cache keys.
var synonyms = map[string]Code{
	"ra":         ARA,
	"aa":         ARA,
	"rc":         ARC,
	"almeida":    ARC,
	"nvi-pt":     NVI,
	"nvipt":      NVI,
	"king james": KJV,
	"kjva":       KJV,
}

// Normalizer maps arbitrary version strings to a supported Code.
type Normalizer struct {
	Default Code
}

// NewNormalizer returns a Normalizer whose fallback is def. An empty def selects Primary.
func NewNormalizer(def string) (Normalizer, error) {
	if strings.TrimSpace(def) == "" {
		return Normalizer{Default: Primary}, nil
	}
	code, ok := Lookup(def)
	if !ok {
		return Normalizer{}, &errors.ValidationError{
			Field:   "default_version",
			Value:   def,
			Message: "not a supported version",
		}
	}
	return Normalizer{Default: code}, nil
}

// Normalize returns the supported code for v, or the default when v is empty or unknown.
func (n Normalizer) Normalize(v string) Code {
	if code, ok := Lookup(v); ok {
		return code
	}
	if _, ok := supported[n.Default]; ok {
		return n.Default
	}
	return Primary
}

// Normalize normalizes v against Primary.
func Normalize(v string) Code {
	return Normalizer{Default: Primary}.Normalize(v)
}

// Lookup reports the supported code for v without applying any default.
func Lookup(v string) (Code, bool) {
	key := strings.ToLower(strings.TrimSpace(v))
	if key == "" {
		return "", false
	}
	if _, ok := supported[Code(key)]; ok {
		return Code(key), true
	}
	if code, ok := synonyms[key]; ok {
		return code, true
	}
	return "", false
}

// IsSupported reports whether c is a member of the closed set.
func IsSupported(c Code) bool {
	_, ok := supported[c]
	return ok
}

// Describe returns metadata for c.
func Describe(c Code) (Info, bool) {
	info, ok := supported[c]
	return info, ok
}

// Language returns the ISO 639-1 language of c, "pt" when c is unknown.
func Language(c Code) string {
	if info, ok := supported[c]; ok {
		return info.Language
	}
	return "pt"
}

// Supported returns every supported translation sorted by code.
func Supported() []Info {
	out := make([]Info, 0, len(supported))
	for _, info := range supported {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
