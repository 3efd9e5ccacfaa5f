package textpos

// MapPlainToHTML converts an offset in plain (the tag-stripped form of html)
// into the matching offset in html.
//
// An unterminated tag keeps the walk "inside a tag" through the end of the
// string, so offsets past it resolve to len(html).
func MapPlainToHTML(html, plain string, off PlainOffset) HTMLOffset {
	units := Units(html)
	if off <= 0 {
		return 0
	}
	if int(off) >= Len(plain) {
		return HTMLOffset(len(units))
	}

	count := 0
	inTag := false
	for i, u := range units {
		switch {
		case u == '<':
			inTag = true
		case inTag:
			if u == '>' {
				inTag = false
			}
		default:
			if count == int(off) {
				return HTMLOffset(i)
			}
			count++
		}
	}
	return HTMLOffset(len(units))
}

// SliceHTML returns html[start:end] in UTF-16 unit coordinates. Offsets are
// clamped to the string bounds and an inverted pair yields "".
func SliceHTML(html string, start, end HTMLOffset) string {
	units := Units(html)
	s := clamp(int(start), len(units))
	e := clamp(int(end), len(units))
	if e <= s {
		return ""
	}
	return FromUnits(units[s:e])
}

// SlicePlain returns plain[start:end] in UTF-16 unit coordinates.
func SlicePlain(plain string, start, end PlainOffset) string {
	return SliceHTML(plain, HTMLOffset(start), HTMLOffset(end))
}

// CountPlain returns the number of non-tag units in html[0:end], using the
// same tag tracking as MapPlainToHTML.
func CountPlain(html string, end HTMLOffset) int {
	units := Units(html)
	e := clamp(int(end), len(units))
	count := 0
	inTag := false
	for _, u := range units[:e] {
		switch {
		case u == '<':
			inTag = true
		case inTag:
			if u == '>' {
				inTag = false
			}
		default:
			count++
		}
	}
	return count
}

// SkipTags advances off past any tags that start at it, landing on the
// next text character or the end of html.
func SkipTags(html string, off HTMLOffset) HTMLOffset {
	units := Units(html)
	i := clamp(int(off), len(units))
	for i < len(units) && units[i] == '<' {
		j := i
		for j < len(units) && units[j] != '>' {
			j++
		}
		if j == len(units) {
			return HTMLOffset(len(units))
		}
		i = j + 1
	}
	return HTMLOffset(i)
}
