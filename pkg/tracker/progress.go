package tracker

import (
	"math"
	"strings"
)

// ProgressBar renders usage as a fixed-width glyph bar.
type ProgressBar struct {
	Width      int
	ClampAbove float64
	Full       string
	Empty      string
}

// DefaultProgressBar returns the 20-cell bar that never shows full below 100%.
func DefaultProgressBar() ProgressBar {
	return ProgressBar{Width: 20, ClampAbove: 95, Full: "█", Empty: "░"}
}

// Cells returns the number of filled and empty cells for pct.
func (b ProgressBar) Cells(pct float64) (filled, empty int) {
	width := b.Width
	if width <= 0 {
		width = DefaultProgressBar().Width
	}

	filled = int(math.Round(0.5 + float64(width)*math.Floor(pct)/100))
	if pct > b.ClampAbove && pct < 100 {
		filled = width - 1
	}
	filled = max(0, min(filled, width))
	return filled, width - filled
}

// Render draws the bar for pct.
func (b ProgressBar) Render(pct float64) string {
	full, empty := b.Full, b.Empty
	if full == "" {
		full = "█"
	}
	if empty == "" {
		empty = "░"
	}
	f, e := b.Cells(pct)
	return strings.Repeat(full, f) + strings.Repeat(empty, e)
}
