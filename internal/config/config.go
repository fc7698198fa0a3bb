package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// Config holds all CDT Guardian configuration.
type Config struct {
	Accounts     []model.Account    `mapstructure:"accounts" validate:"dive"`
	Notification NotificationConfig `mapstructure:"notification"`
	Monitor      MonitorConfig      `mapstructure:"monitor"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// NotificationConfig defines the notification title and channels.
type NotificationConfig struct {
	Title    string         `mapstructure:"title"`
	Email    EmailConfig    `mapstructure:"email"`
	Bark     BarkConfig     `mapstructure:"bark"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	WeCom    WeComConfig    `mapstructure:"wecom"`
}

// EmailConfig defines SMTP settings.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	To       string `mapstructure:"to" validate:"required_if=Enabled true,omitempty,email"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Secure   string `mapstructure:"secure" validate:"omitempty,oneof=tls ssl none"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
	FromName string `mapstructure:"from_name"`
}

// BarkConfig defines Bark push settings.
type BarkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"required_if=Enabled true,omitempty,url"`
}

// TelegramConfig defines Telegram bot settings.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token" validate:"required_if=Enabled true"`
	ChatID   string `mapstructure:"chat_id" validate:"required_if=Enabled true"`
	APIBase  string `mapstructure:"api_base" validate:"omitempty,url"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"required_if=Enabled true,omitempty,url"`
	ID      string `mapstructure:"id"`
	Secret  string `mapstructure:"secret"`
}

// WeComConfig defines enterprise WeChat application settings.
type WeComConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	CorpID     string `mapstructure:"corp_id" validate:"required_if=Enabled true"`
	CorpSecret string `mapstructure:"corp_secret" validate:"required_if=Enabled true"`
	AgentID    string `mapstructure:"agent_id" validate:"required_if=Enabled true"`
	ToUser     string `mapstructure:"to_user"`
	BaseURL    string `mapstructure:"base_url" validate:"omitempty,url"`
	PicURL     string `mapstructure:"pic_url"`
}

// MonitorConfig defines check behaviour.
type MonitorConfig struct {
	ThresholdPct float64           `mapstructure:"threshold_pct" validate:"gt=0,lte=100"`
	LogPath      string            `mapstructure:"log_path" validate:"required"`
	Timezone     string            `mapstructure:"timezone" validate:"required"`
	NotifyErrors bool              `mapstructure:"notify_errors"`
	ProgressBar  ProgressBarConfig `mapstructure:"progress_bar"`
}

// ProgressBarConfig defines the digest progress bar.
type ProgressBarConfig struct {
	Width      int     `mapstructure:"width" validate:"gt=0,lte=100"`
	ClampAbove float64 `mapstructure:"clamp_above" validate:"gte=0,lte=100"`
}

// ScheduleConfig defines cron expressions for the scheduler.
type ScheduleConfig struct {
	Check string `mapstructure:"check"`
	Daily string `mapstructure:"daily"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen" validate:"required"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Monitor.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Monitor.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from file and environment variables. A .env file
// in the working directory is loaded into the environment first.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cdtg"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("notification.title", "CDT流量统计")
	v.SetDefault("notification.email.port", 465)
	v.SetDefault("notification.email.secure", "ssl")
	v.SetDefault("notification.email.from_name", "阿里云CDT告警")
	v.SetDefault("notification.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("notification.wecom.base_url", "https://qyapi.weixin.qq.com")
	v.SetDefault("notification.wecom.to_user", "@all")
	v.SetDefault("monitor.threshold_pct", 95)
	v.SetDefault("monitor.log_path", "data.json")
	v.SetDefault("monitor.timezone", "Asia/Shanghai")
	v.SetDefault("monitor.notify_errors", true)
	v.SetDefault("monitor.progress_bar.width", 20)
	v.SetDefault("monitor.progress_bar.clamp_above", 95)
	v.SetDefault("schedule.check", "*/5 * * * *")
	v.SetDefault("schedule.daily", "0 9 * * *")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("CDTG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct rules and the time zone.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if e := c.Notification.Email; e.Enabled && e.Username == "" && e.From == "" {
		return errors.New("validate config: notification.email needs a username or a from address")
	}
	return nil
}
