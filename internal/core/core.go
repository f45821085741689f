// Package core holds the shared domain types and API contract used
// across the puzzle pipeline and its HTTP surface.
package core

// Color identifies a chess side.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Opposite returns the other side.
func (c Color) Opposite() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

func (c Color) String() string {
	return string(c)
}
