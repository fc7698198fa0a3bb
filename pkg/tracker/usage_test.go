package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/tracker"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		traffic float64
		cap     float64
		wantPct float64
		over    bool
	}{
		{"half", 50, 100, 50, false},
		{"over", 96, 100, 96, true},
		{"exact threshold", 95, 100, 95, true},
		{"just below", 94.99, 100, 94.99, false},
		{"repeating third", 1, 3, 33.33, false},
		{"rounds to two decimals", 2, 3, 66.67, false},
		{"above cap", 250, 200, 125, true},
		{"zero cap", 10, 0, 0, false},
		{"zero traffic", 0, 200, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tracker.Evaluate(tt.traffic, tt.cap, tracker.DefaultThresholdPct)
			assert.Equal(t, tt.wantPct, a.UsagePct)
			assert.Equal(t, tt.over, a.OverThreshold)
			assert.Equal(t, tt.traffic, a.TrafficGB)
		})
	}
}

func TestEvaluate_CustomThreshold(t *testing.T) {
	assert.True(t, tracker.Evaluate(80, 100, 80).OverThreshold)
	assert.False(t, tracker.Evaluate(79.99, 100, 80).OverThreshold)
}

func TestBytesToGB(t *testing.T) {
	assert.Equal(t, 1.0, tracker.BytesToGB(1<<30))
	assert.Equal(t, 0.5, tracker.BytesToGB(1<<29))
}
