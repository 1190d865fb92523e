package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// bareMarker is a 1-3 digit verse number at line start or after whitespace.
	bareMarker = regexp.MustCompile(`(?:^|\s)\[?(\d{1,3})\]?\s+`)

	// bracketMarker is the "[12]" form some providers emit in text mode.
	bracketMarker = regexp.MustCompile(`\[(\d{1,3})\]\s*`)
)

// ScanNumbered splits plain text with inline verse numbers into cleaned verses
// sorted by verse number. Each marker starts a new verse that runs until the
// next marker. When the text carries bracketed markers only those are used,
// so numbers inside the prose are not mistaken for verse starts.
func ScanNumbered(text string) []string {
	re := bareMarker
	if bracketMarker.MatchString(text) {
		re = bracketMarker
	}

	matches := re.FindAllStringSubmatchIndex(text, -1)
	verses := make(map[int][]string, len(matches))
	for i, m := range matches {
		v, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || v < 1 {
			continue
		}
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		verses[v] = append(verses[v], text[m[1]:end])
	}

	nums := make([]int, 0, len(verses))
	for v := range verses {
		nums = append(nums, v)
	}
	sort.Ints(nums)

	out := make([]string, 0, len(nums))
	for _, v := range nums {
		if s := Clean(strings.Join(verses[v], " ")); s != "" {
			out = append(out, s)
		}
	}
	return out
}
