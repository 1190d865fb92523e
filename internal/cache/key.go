package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/lectio/core/canon"
	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/version"
)

// Key identifies one chapter of one translation. Book is the unique
// canon.Book ID and Version is always a normalized code, so synonym versions
// and colliding plan codes never produce two keys for the same content.
type Key struct {
	Book    string       `json:"book"`
	Chapter int          `json:"chapter"`
	Version version.Code `json:"version"`
}

// NewKey builds a Key from a resolved book and a normalized version.
func NewKey(book canon.Book, chapter int, v version.Code) Key {
	return Key{Book: book.ID, Chapter: chapter, Version: v}
}

// String renders the key as "book:chapter:version".
func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%s", k.Book, k.Chapter, k.Version)
}

// ParseKey parses the String form.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Key{}, errors.NewValidation("key", fmt.Sprintf("%q is not book:chapter:version", s))
	}
	chapter, err := strconv.Atoi(parts[1])
	if err != nil || chapter < 1 {
		return Key{}, errors.NewValidation("key", fmt.Sprintf("%q has a bad chapter", s))
	}
	return Key{Book: parts[0], Chapter: chapter, Version: version.Code(parts[2])}, nil
}
