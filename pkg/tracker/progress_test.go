package tracker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/tracker"
)

func TestProgressBar_Cells(t *testing.T) {
	bar := tracker.DefaultProgressBar()

	tests := []struct {
		pct    float64
		filled int
	}{
		{96, 19},
		{99.99, 19},
		{100, 20},
		{50, 11},
		{49.9, 10},
		{95, 20},
		{0, 1},
		{150, 20},
		{-5, 0},
	}
	for _, tt := range tests {
		filled, empty := bar.Cells(tt.pct)
		assert.Equal(t, tt.filled, filled, "pct %v", tt.pct)
		assert.Equal(t, 20-tt.filled, empty, "pct %v", tt.pct)
	}
}

func TestProgressBar_Render(t *testing.T) {
	bar := tracker.DefaultProgressBar()
	assert.Equal(t, strings.Repeat("█", 19)+"░", bar.Render(96))
	assert.Equal(t, strings.Repeat("█", 20), bar.Render(100))
}

func TestProgressBar_Custom(t *testing.T) {
	bar := tracker.ProgressBar{Width: 10, ClampAbove: 90, Full: "#", Empty: "-"}
	assert.Equal(t, "#########-", bar.Render(92))
	assert.Equal(t, "######----", bar.Render(50))

	var zero tracker.ProgressBar
	filled, empty := zero.Cells(50)
	assert.Equal(t, 20, filled+empty)
}
