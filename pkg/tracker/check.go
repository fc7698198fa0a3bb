// Package tracker evaluates CDT traffic usage, toggles the ingress rule and
// reports the outcome.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/regions"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/runlog"
)

// ErrNoSecurityGroup is returned when the instance has no security group.
var ErrNoSecurityGroup = errors.New("instance has no security group")

// Dispatcher delivers a message to every enabled channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg alerts.Message) alerts.Outcome
}

// Recorder observes check results. All methods must be cheap.
type Recorder interface {
	AccountChecked(account string, failed bool)
	Usage(account string, pct float64)
	RuleTransition(account string, action Action)
	Notification(channel string, ok bool)
}

// Settings tunes a check or digest pass.
type Settings struct {
	ThresholdPct float64
	Title        string
	NotifyErrors bool
	Location     *time.Location
}

func (s Settings) withDefaults() Settings {
	if s.ThresholdPct <= 0 {
		s.ThresholdPct = DefaultThresholdPct
	}
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	if s.Location == nil {
		s.Location = time.Local
	}
	return s
}

// Checker runs the per-account check loop.
type Checker struct {
	opener     cloud.Opener
	dispatcher Dispatcher
	regions    regions.Table
	rules      *RuleController
	settings   Settings
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewChecker creates a checker.
func NewChecker(opener cloud.Opener, dispatcher Dispatcher, table regions.Table, settings Settings, logger *slog.Logger) *Checker {
	return &Checker{
		opener:     opener,
		dispatcher: dispatcher,
		regions:    table,
		rules:      NewRuleController(logger),
		settings:   settings.withDefaults(),
		logger:     logger,
		now:        time.Now,
	}
}

// WithRecorder attaches a result recorder.
func (c *Checker) WithRecorder(r Recorder) *Checker {
	c.recorder = r
	return c
}

// WithClock overrides the clock used to stamp snapshots.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// Run checks every account in order and returns the run log snapshot. A
// failing account never stops the loop.
func (c *Checker) Run(ctx context.Context, accounts []model.Account) model.RunLog {
	logger := c.logger.With("run_id", uuid.New().String())
	logger.Info("check started", "accounts", len(accounts))

	log := runlog.New(c.settings.Location)
	for _, account := range accounts {
		entry := c.checkAccount(ctx, logger.With("account", account.DisplayName()), account)
		log.Add(entry)
		if c.recorder != nil {
			c.recorder.AccountChecked(entry.Server, entry.IsError())
		}
	}

	logger.Info("check finished", "accounts", len(accounts))
	return log.Snapshot(c.now())
}

func (c *Checker) checkAccount(ctx context.Context, logger *slog.Logger, account model.Account) model.RunLogEntry {
	gw, err := c.opener.Open(ctx, account)
	if err != nil {
		return c.fail(ctx, logger, account, err)
	}
	if err := gw.Validate(ctx); err != nil {
		return c.fail(ctx, logger, account, err)
	}

	bytes := trafficBytes(ctx, logger, gw)
	assessment := Evaluate(BytesToGB(bytes), account.MaxTrafficGB, c.settings.ThresholdPct)
	if c.recorder != nil {
		c.recorder.Usage(account.DisplayName(), assessment.UsagePct)
	}

	inst, err := gw.Instance(ctx)
	if err != nil {
		return c.fail(ctx, logger, account, fmt.Errorf("describe instance: %w", err))
	}
	if len(inst.SecurityGroupIDs) == 0 {
		return c.fail(ctx, logger, account, ErrNoSecurityGroup)
	}

	transition, err := c.rules.Apply(ctx, gw, inst.SecurityGroupIDs[0], assessment.OverThreshold)
	if err != nil {
		return c.fail(ctx, logger, account, err)
	}
	if c.recorder != nil {
		c.recorder.RuleTransition(account.DisplayName(), transition.Action)
	}

	entry := c.entry(account, assessment, inst)
	entry.RuleState = transition.Description
	entry.Notification = model.NotifyNotRequired
	if transition.Notify() {
		outcome := c.dispatch(ctx, AlertMessage(c.settings.Title, entry))
		entry.Notification = outcome.String()
	}

	logger.Info("account checked",
		"traffic_gb", model.Round2(assessment.TrafficGB),
		"cap_gb", assessment.CapGB,
		"usage_pct", assessment.UsagePct,
		"over_threshold", assessment.OverThreshold,
		"action", transition.Action,
	)
	return entry
}

func (c *Checker) entry(account model.Account, a model.Assessment, inst *model.Instance) model.RunLogEntry {
	return model.RunLogEntry{
		InstanceID:    account.InstanceID,
		Server:        account.DisplayName(),
		CapGB:         a.CapGB,
		UsedGB:        a.TrafficGB,
		UsagePct:      a.UsagePct,
		Region:        c.regionName(account),
		ExpiredTime:   inst.ExpiredTime,
		PublicIP:      inst.PublicIP,
		ThresholdPct:  a.ThresholdPct,
		OverThreshold: a.OverThreshold,
	}
}

func (c *Checker) regionName(account model.Account) string {
	provider := account.Provider
	if provider == "" {
		provider = cloud.DefaultProvider
	}
	return c.regions.Name(provider, account.Region)
}

// fail records an error-only entry and, when enabled, sends a best-effort
// error notification whose outcome is ignored.
func (c *Checker) fail(ctx context.Context, logger *slog.Logger, account model.Account, err error) model.RunLogEntry {
	logger.Error("account check failed", "kind", cloud.KindOf(err), "error", err)

	entry := model.RunLogEntry{
		InstanceID: account.InstanceID,
		Server:     account.DisplayName(),
		Error:      cloud.Describe(err),
	}
	if c.settings.NotifyErrors {
		c.dispatch(ctx, ErrorMessage(c.settings.Title, entry))
	}
	return entry
}

func (c *Checker) dispatch(ctx context.Context, msg alerts.Message) alerts.Outcome {
	outcome := c.dispatcher.Dispatch(ctx, msg)
	if c.recorder != nil {
		for _, r := range outcome.Results {
			c.recorder.Notification(r.Channel, r.Err == nil)
		}
	}
	return outcome
}

// trafficBytes fetches the traffic counter. A failed fetch is logged and
// counted as zero so the rule decision still runs.
func trafficBytes(ctx context.Context, logger *slog.Logger, gw cloud.Gateway) float64 {
	bytes, err := gw.TrafficBytes(ctx)
	if err != nil {
		logger.Warn("fetch traffic failed, using 0",
			"kind", cloud.KindOf(err),
			"error", cloud.Describe(err),
		)
		return 0
	}
	return bytes
}
