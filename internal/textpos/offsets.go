// Package textpos maps between the two coordinate spaces of passage content:
// offsets into the tag-stripped plain text and offsets into the raw HTML.
//
// All offsets count UTF-16 code units, matching how stored sentence
// references were produced by the browser client.
package textpos

import (
	"regexp"
	"unicode/utf16"
	"unicode/utf8"
)

// PlainOffset is a position in the tag-stripped plain text.
type PlainOffset int

// HTMLOffset is a position in the raw HTML string.
type HTMLOffset int

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes every markup tag from content. Entities are left as-is
// so that the remaining characters are an in-order copy of the non-tag
// characters of content.
func StripTags(content string) string {
	return tagPattern.ReplaceAllString(content, "")
}

// Units returns s as UTF-16 code units.
func Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// FromUnits decodes UTF-16 code units back into a string.
func FromUnits(u []uint16) string {
	return string(utf16.Decode(u))
}

// Len returns the length of s in UTF-16 code units.
func Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// clamp bounds i to [0, n].
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// ByteIndex returns a function converting byte indices of s into UTF-16
// unit indices. Regexp matches report byte positions; stored offsets are
// unit positions.
func ByteIndex(s string) func(int) int {
	table := make([]int, len(s)+1)
	units := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		for j := 0; j < size; j++ {
			table[i+j] = units
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		i += size
	}
	table[len(s)] = units
	return func(b int) int {
		return table[clamp(b, len(s))]
	}
}
