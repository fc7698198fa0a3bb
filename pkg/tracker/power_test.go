package tracker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud/cloudtest"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/tracker"
)

func TestPowerController_Do(t *testing.T) {
	tests := []struct {
		name   string
		status string
		action tracker.PowerAction
		want   string
		starts int
		stops  int
	}{
		{"stop running", cloud.StatusRunning, tracker.PowerStop, "实例 hk-1 正在关闭...", 0, 1},
		{"stop stopped", cloud.StatusStopped, tracker.PowerStop, "实例 hk-1 已经关闭", 0, 0},
		{"start stopped", cloud.StatusStopped, tracker.PowerStart, "实例 hk-1 正在启动...", 1, 0},
		{"start running", cloud.StatusRunning, tracker.PowerStart, "实例 hk-1 已经运行", 0, 0},
		{"status", cloud.StatusRunning, tracker.PowerStatus, "实例 hk-1 状态: Running", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := cloudtest.New(0, model.RuleEnabled)
			gw.Status = tt.status
			p := tracker.NewPowerController(opener(map[string]*cloudtest.Gateway{"i-1": gw}), testLogger())

			got, err := p.Do(context.Background(), account("hk-1", "i-1", 100), tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.starts, gw.Starts)
			assert.Equal(t, tt.stops, gw.Stops)
		})
	}
}

func TestPowerController_Errors(t *testing.T) {
	gw := cloudtest.New(0, model.RuleEnabled)
	gw.PowerErr = errors.New("forbidden")
	p := tracker.NewPowerController(opener(map[string]*cloudtest.Gateway{"i-1": gw}), testLogger())

	_, err := p.Do(context.Background(), account("hk-1", "i-1", 100), tracker.PowerStop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instance status")

	_, err = p.Do(context.Background(), account("hk-1", "i-404", 100), tracker.PowerStart)
	assert.ErrorIs(t, err, cloud.ErrInstanceNotFound)
}

func TestParsePowerAction(t *testing.T) {
	a, err := tracker.ParsePowerAction("stop")
	require.NoError(t, err)
	assert.Equal(t, tracker.PowerStop, a)

	_, err = tracker.ParsePowerAction("reboot")
	assert.Error(t, err)
}
