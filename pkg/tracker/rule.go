package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// Action is the mutation chosen for the ingress rule.
type Action string

const (
	ActionNone    Action = "none"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// Rule state descriptions recorded in the run log.
const (
	DescDisabled        = "已禁用 0.0.0.0/0 访问规则"
	DescAlreadyDisabled = "规则已禁用，无需操作"
	DescRestored        = "已恢复 0.0.0.0 访问规则"
	DescAlreadyEnabled  = "规则已启用，无需操作"
)

// Transition is the outcome of one rule decision.
type Transition struct {
	Action      Action
	From        model.RuleState
	To          model.RuleState
	Description string
}

// Notify reports whether the transition changed remote state.
func (t Transition) Notify() bool { return t.Action != ActionNone }

// Decide picks the action for the current rule state and usage.
func Decide(current model.RuleState, overThreshold bool) Transition {
	switch {
	case current == model.RuleEnabled && overThreshold:
		return Transition{Action: ActionDisable, From: current, To: model.RuleDisabled, Description: DescDisabled}
	case current == model.RuleDisabled && overThreshold:
		return Transition{Action: ActionNone, From: current, To: current, Description: DescAlreadyDisabled}
	case current == model.RuleDisabled && !overThreshold:
		return Transition{Action: ActionEnable, From: current, To: model.RuleEnabled, Description: DescRestored}
	default:
		return Transition{Action: ActionNone, From: current, To: current, Description: DescAlreadyEnabled}
	}
}

// RuleController reads the remote rule state and applies transitions.
type RuleController struct {
	logger *slog.Logger
}

// NewRuleController creates a rule controller.
func NewRuleController(logger *slog.Logger) *RuleController {
	return &RuleController{logger: logger}
}

// Apply reads the rule state of securityGroupID and issues at most one
// mutating call. No call is made when the remote state already matches.
func (c *RuleController) Apply(ctx context.Context, gw cloud.Gateway, securityGroupID string, overThreshold bool) (Transition, error) {
	current, err := gw.RuleState(ctx, securityGroupID)
	if err != nil {
		return Transition{}, fmt.Errorf("read rule state: %w", err)
	}

	t := Decide(current, overThreshold)
	switch t.Action {
	case ActionDisable:
		if err := gw.DisableRule(ctx, securityGroupID); err != nil {
			return Transition{}, fmt.Errorf("disable rule: %w", err)
		}
	case ActionEnable:
		if err := gw.EnableRule(ctx, securityGroupID); err != nil {
			return Transition{}, fmt.Errorf("enable rule: %w", err)
		}
	}

	if t.Notify() {
		c.logger.Warn("ingress rule changed",
			"security_group", securityGroupID,
			"action", t.Action,
			"from", t.From,
			"to", t.To,
		)
	}
	return t, nil
}
