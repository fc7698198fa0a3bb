package runlog_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/runlog"
)

var shanghai = time.FixedZone("CST", 8*3600)

func sampleEntry() model.RunLogEntry {
	return model.RunLogEntry{
		InstanceID:    "i-1",
		Server:        "hk-1",
		CapGB:         100,
		UsedGB:        96,
		UsagePct:      96,
		Region:        "中国香港",
		ExpiredTime:   model.NoExpiry,
		PublicIP:      "47.1.2.3",
		ThresholdPct:  95,
		OverThreshold: true,
		RuleState:     "已禁用 0.0.0.0/0 访问规则",
		Notification:  model.NotifySuccess,
	}
}

func TestLogger_Snapshot(t *testing.T) {
	l := runlog.New(shanghai)
	l.Add(sampleEntry())
	l.Add(model.RunLogEntry{Server: "hk-2", Error: "客户端异常: bad key"})

	snap := l.Snapshot(time.Date(2026, 10, 17, 1, 2, 3, 0, time.UTC))
	assert.Equal(t, "2026-10-17 09:02:03", snap.Timestamp)
	require.Len(t, snap.Entries, 2)
	assert.True(t, snap.Entries[1].IsError())
}

func TestLogger_EmptySnapshot(t *testing.T) {
	data, err := runlog.Encode(runlog.New(shanghai).Snapshot(time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"日志": []`)
}

func TestWrite_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "data.json")

	first := runlog.New(shanghai)
	first.Add(sampleEntry())
	first.Add(sampleEntry())
	_, err := runlog.Write(path, first.Snapshot(time.Now()))
	require.NoError(t, err)

	second := runlog.New(shanghai)
	second.Add(sampleEntry())
	written, err := runlog.Write(path, second.Snapshot(time.Now()))
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, written, onDisk)

	var decoded struct {
		Entries []map[string]string `json:"日志"`
	}
	require.NoError(t, json.Unmarshal(onDisk, &decoded))
	assert.Len(t, decoded.Entries, 1)
	assert.Equal(t, "96%", decoded.Entries[0]["使用百分比"])
	assert.Equal(t, "已禁用 0.0.0.0/0 访问规则", decoded.Entries[0]["安全组状态"])

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestEncode_Format(t *testing.T) {
	l := runlog.New(shanghai)
	l.Add(sampleEntry())
	data, err := runlog.Encode(l.Snapshot(time.Now()))
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, "{\n  \"获取时间\""))
	assert.Contains(t, s, "\n    {\n      \"实例ID\": \"i-1\"")
	assert.Contains(t, s, "中国香港", "unicode is not escaped")
	assert.NotContains(t, s, `\u`)
}

func TestRead_Missing(t *testing.T) {
	_, err := runlog.Read(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
