package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/cdt-guardian/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Accounts)
	assert.Equal(t, "CDT流量统计", cfg.Notification.Title)
	assert.Equal(t, 95.0, cfg.Monitor.ThresholdPct)
	assert.Equal(t, "data.json", cfg.Monitor.LogPath)
	assert.Equal(t, "Asia/Shanghai", cfg.Monitor.Timezone)
	assert.True(t, cfg.Monitor.NotifyErrors)
	assert.Equal(t, 20, cfg.Monitor.ProgressBar.Width)
	assert.Equal(t, 95.0, cfg.Monitor.ProgressBar.ClampAbove)
	assert.Equal(t, "*/5 * * * *", cfg.Schedule.Check)
	assert.Equal(t, "0 9 * * *", cfg.Schedule.Daily)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
accounts:
  - name: hk-1
    access_key_id: LTAI5tAbCdEf
    access_key_secret: secret
    region: cn-hongkong
    instance_id: i-abc
    max_traffic_gb: 200
  - provider: aws
    access_key_id: AKIAEXAMPLE
    access_key_secret: secret
    region: us-east-1
    instance_id: i-0abc
    max_traffic_gb: 100
notification:
  title: 流量告警
  bark:
    enabled: true
    url: https://api.day.app/key
  webhook:
    enabled: true
    url: https://hooks.example.com/push?token=x
    id: "7"
monitor:
  threshold_pct: 90
  notify_errors: false
logging:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, "hk-1", cfg.Accounts[0].Name)
	assert.Equal(t, "secret", cfg.Accounts[0].AccessKeySecret)
	assert.Equal(t, 200.0, cfg.Accounts[0].MaxTrafficGB)
	assert.Equal(t, "aws", cfg.Accounts[1].Provider)
	assert.Equal(t, "流量告警", cfg.Notification.Title)
	assert.True(t, cfg.Notification.Bark.Enabled)
	assert.Equal(t, "7", cfg.Notification.Webhook.ID)
	assert.Equal(t, 90.0, cfg.Monitor.ThresholdPct)
	assert.False(t, cfg.Monitor.NotifyErrors)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CDTG_LOGGING_LEVEL", "error")
	t.Setenv("CDTG_SERVER_LISTEN", ":7070")
	t.Setenv("CDTG_MONITOR_THRESHOLD_PCT", "80")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.Equal(t, 80.0, cfg.Monitor.ThresholdPct)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CDTG_MONITOR_LOG_PATH=/var/lib/cdtg/data.json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CDTG_MONITOR_LOG_PATH") })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/cdtg/data.json", cfg.Monitor.LogPath)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := config.Load(writeConfig(t, "invalid: [yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"account without instance", `
accounts:
  - access_key_id: a
    access_key_secret: b
    region: cn-hongkong
`},
		{"unknown provider", `
accounts:
  - provider: gcp
    access_key_id: a
    access_key_secret: b
    region: r
    instance_id: i
`},
		{"enabled bark without url", `
notification:
  bark:
    enabled: true
`},
		{"bad email secure mode", `
notification:
  email:
    secure: starttls
`},
		{"enabled email without sender", `
notification:
  email:
    enabled: true
    to: ops@example.com
    host: smtp.example.com
`},
		{"threshold out of range", `
monitor:
  threshold_pct: 150
`},
		{"unknown timezone", `
monitor:
  timezone: Mars/Olympus
`},
		{"bad log level", `
logging:
  level: verbose
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_EmailOpenRelay(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
notification:
  email:
    enabled: true
    to: ops@example.com
    host: relay.internal
    port: 25
    secure: none
    from: cdt@example.com
`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Notification.Email.Username)
	assert.Equal(t, "cdt@example.com", cfg.Notification.Email.From)
}

func TestLoad_ProgressBarClampZero(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
monitor:
  progress_bar:
    clamp_above: 0
`))
	require.NoError(t, err)
	assert.Zero(t, cfg.Monitor.ProgressBar.ClampAbove)
	assert.Equal(t, 20, cfg.Monitor.ProgressBar.Width)
}
