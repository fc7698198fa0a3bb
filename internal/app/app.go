// Package app wires configuration, cloud gateways, notifiers and metrics
// into runnable check and digest jobs.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ogulcanaydogan/cdt-guardian/internal/config"
	"github.com/ogulcanaydogan/cdt-guardian/internal/metrics"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud/aliyun"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud/awsec2"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/regions"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/runlog"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/tracker"
)

// Job names used for logging and metrics.
const (
	JobCheck = "check"
	JobDaily = "daily"
)

// App is a fully wired CDT Guardian instance.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Dispatcher *alerts.Dispatcher

	checker *tracker.Checker
	digest  *tracker.Digest
	power   *tracker.PowerController

	// mu serialises check and digest runs across the scheduler and HTTP.
	mu sync.Mutex
}

// NewRegistry returns a registry with every supported cloud provider.
func NewRegistry() *cloud.Registry {
	r := cloud.NewRegistry()
	_ = r.Register("aliyun", aliyun.Open)
	_ = r.Register("aws", awsec2.Open)
	return r
}

// New wires an App against the real cloud providers.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	return NewWithOpener(cfg, NewRegistry(), logger)
}

// NewWithOpener wires an App that opens gateways through opener.
func NewWithOpener(cfg *config.Config, opener cloud.Opener, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	notifiers, err := Notifiers(cfg.Notification)
	if err != nil {
		return nil, err
	}
	dispatcher := alerts.NewDispatcher(notifiers, logger)
	m := metrics.New()

	settings := tracker.Settings{
		ThresholdPct: cfg.Monitor.ThresholdPct,
		Title:        cfg.Notification.Title,
		NotifyErrors: cfg.Monitor.NotifyErrors,
		Location:     loc,
	}
	bar := ProgressBar(cfg.Monitor.ProgressBar)

	table := regions.Default()
	logger.Debug("notification channels", "channels", dispatcher.Channels())

	return &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		Dispatcher: dispatcher,
		checker:    tracker.NewChecker(opener, dispatcher, table, settings, logger).WithRecorder(m),
		digest:     tracker.NewDigest(opener, dispatcher, table, bar, settings, logger),
		power:      tracker.NewPowerController(opener, logger),
	}, nil
}

// ProgressBar builds the digest progress bar. ClampAbove is taken as
// configured, including 0; config.Load fills in the default when unset.
func ProgressBar(cfg config.ProgressBarConfig) tracker.ProgressBar {
	bar := tracker.DefaultProgressBar()
	if cfg.Width > 0 {
		bar.Width = cfg.Width
	}
	bar.ClampAbove = cfg.ClampAbove
	return bar
}

// NewLogger creates a structured logger from config.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// Notifiers creates the enabled notification channels in a fixed order.
func Notifiers(cfg config.NotificationConfig) ([]alerts.Notifier, error) {
	var notifiers []alerts.Notifier

	if cfg.Email.Enabled {
		n, err := alerts.NewEmailNotifier(alerts.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			Secure:   cfg.Email.Secure,
			To:       cfg.Email.To,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		})
		if err != nil {
			return nil, fmt.Errorf("email notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Bark.Enabled && cfg.Bark.URL != "" {
		notifiers = append(notifiers, alerts.NewBarkNotifier(cfg.Bark.URL))
	}
	if cfg.Telegram.Enabled {
		notifiers = append(notifiers, alerts.NewTelegramNotifier(
			cfg.Telegram.APIBase,
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
		))
	}
	if cfg.Webhook.Enabled && cfg.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Webhook.URL,
			cfg.Webhook.ID,
			cfg.Webhook.Secret,
		))
	}
	if cfg.WeCom.Enabled {
		notifiers = append(notifiers, alerts.NewWeComNotifier(alerts.WeComConfig{
			BaseURL:    cfg.WeCom.BaseURL,
			CorpID:     cfg.WeCom.CorpID,
			CorpSecret: cfg.WeCom.CorpSecret,
			AgentID:    cfg.WeCom.AgentID,
			ToUser:     cfg.WeCom.ToUser,
			PicURL:     cfg.WeCom.PicURL,
		}))
	}

	return notifiers, nil
}

// RunCheck checks every account, persists the snapshot to the configured
// log path and returns the encoded snapshot. A write failure still returns
// the encoded bytes.
func (a *App) RunCheck(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	defer func() { a.Metrics.ObserveJob(JobCheck, time.Since(start)) }()

	snapshot := a.checker.Run(ctx, a.Config.Accounts)
	data, err := runlog.Write(a.Config.Monitor.LogPath, snapshot)
	if err != nil {
		a.Logger.Error("write run log", "path", a.Config.Monitor.LogPath, "error", err)
		if data == nil {
			if encoded, encErr := runlog.Encode(snapshot); encErr == nil {
				data = encoded
			}
		}
		return data, err
	}
	return data, nil
}

// RunDigest sends the daily digest for every account.
func (a *App) RunDigest(ctx context.Context) []tracker.DigestResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	defer func() { a.Metrics.ObserveJob(JobDaily, time.Since(start)) }()

	return a.digest.Run(ctx, a.Config.Accounts)
}

// Power runs an instance power action on the account matching ref.
func (a *App) Power(ctx context.Context, ref string, action tracker.PowerAction) (string, error) {
	account, err := a.Account(ref)
	if err != nil {
		return "", err
	}
	return a.power.Do(ctx, account, action)
}

// Account finds an account by name or instance id. An empty ref selects
// the only configured account.
func (a *App) Account(ref string) (model.Account, error) {
	accounts := a.Config.Accounts
	if ref == "" {
		if len(accounts) == 1 {
			return accounts[0], nil
		}
		return model.Account{}, fmt.Errorf("%d accounts configured, specify one by name or instance id", len(accounts))
	}
	for _, acc := range accounts {
		if acc.Name == ref || acc.InstanceID == ref {
			return acc, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %q not found", ref)
}
