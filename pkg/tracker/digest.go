package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/regions"
)

// DigestResult is the digest outcome for one account.
type DigestResult struct {
	Account string
	Sent    bool
	Skipped bool
	Outcome string
	Err     error
}

// Digest sends the daily usage summary for accounts whose rule is enabled.
type Digest struct {
	opener     cloud.Opener
	dispatcher Dispatcher
	regions    regions.Table
	bar        ProgressBar
	settings   Settings
	logger     *slog.Logger
}

// NewDigest creates a digest runner.
func NewDigest(opener cloud.Opener, dispatcher Dispatcher, table regions.Table, bar ProgressBar, settings Settings, logger *slog.Logger) *Digest {
	return &Digest{
		opener:     opener,
		dispatcher: dispatcher,
		regions:    table,
		bar:        bar,
		settings:   settings.withDefaults(),
		logger:     logger,
	}
}

// Run processes every account in order. Errors are logged and returned in
// the results but never notified.
func (d *Digest) Run(ctx context.Context, accounts []model.Account) []DigestResult {
	logger := d.logger.With("run_id", uuid.New().String())
	results := make([]DigestResult, 0, len(accounts))

	for _, account := range accounts {
		res := d.runAccount(ctx, account)
		if res.Err != nil {
			logger.Error("digest failed",
				"account", res.Account,
				"kind", cloud.KindOf(res.Err),
				"error", res.Err,
			)
		} else {
			logger.Info("digest processed",
				"account", res.Account,
				"sent", res.Sent,
				"skipped", res.Skipped,
			)
		}
		results = append(results, res)
	}
	return results
}

func (d *Digest) runAccount(ctx context.Context, account model.Account) DigestResult {
	res := DigestResult{Account: account.DisplayName()}

	gw, err := d.opener.Open(ctx, account)
	if err != nil {
		res.Err = err
		return res
	}
	if err := gw.Validate(ctx); err != nil {
		res.Err = err
		return res
	}

	bytes := trafficBytes(ctx, d.logger.With("account", res.Account), gw)
	assessment := Evaluate(BytesToGB(bytes), account.MaxTrafficGB, d.settings.ThresholdPct)

	inst, err := gw.Instance(ctx)
	if err != nil {
		res.Err = fmt.Errorf("describe instance: %w", err)
		return res
	}
	if len(inst.SecurityGroupIDs) == 0 {
		res.Err = ErrNoSecurityGroup
		return res
	}

	state, err := gw.RuleState(ctx, inst.SecurityGroupIDs[0])
	if err != nil {
		res.Err = fmt.Errorf("read rule state: %w", err)
		return res
	}
	if state == model.RuleDisabled {
		res.Skipped = true
		return res
	}

	provider := account.Provider
	if provider == "" {
		provider = cloud.DefaultProvider
	}
	entry := model.RunLogEntry{
		InstanceID:  account.InstanceID,
		Server:      account.DisplayName(),
		CapGB:       assessment.CapGB,
		UsedGB:      assessment.TrafficGB,
		UsagePct:    assessment.UsagePct,
		Region:      d.regions.Name(provider, account.Region),
		ExpiredTime: inst.ExpiredTime,
		PublicIP:    inst.PublicIP,
	}
	outcome := d.dispatcher.Dispatch(ctx, DigestMessage(d.settings.Title, entry, d.bar))
	res.Sent = true
	res.Outcome = outcome.String()
	return res
}
