package highlight

import "fmt"

// Color is one of the six marker colours offered to test takers.
type Color string

const (
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
	Pink   Color = "pink"
	Orange Color = "orange"
	Purple Color = "purple"
)

var backgrounds = map[Color]string{
	Yellow: "#fef08a",
	Green:  "#bbf7d0",
	Blue:   "#bfdbfe",
	Pink:   "#fbcfe8",
	Orange: "#fed7aa",
	Purple: "#e9d5ff",
}

// Colors returns every colour in palette order.
func Colors() []Color {
	return []Color{Yellow, Green, Blue, Pink, Orange, Purple}
}

// Valid reports whether c is in the palette.
func (c Color) Valid() bool {
	_, ok := backgrounds[c]
	return ok
}

// Background returns the CSS background colour for c.
func (c Color) Background() string {
	return backgrounds[c]
}

// ParseColor validates a colour name.
func ParseColor(s string) (Color, error) {
	c := Color(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown highlight color %q", s)
	}
	return c, nil
}
