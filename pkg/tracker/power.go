package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// PowerAction is an instance power operation.
type PowerAction string

const (
	PowerStart  PowerAction = "start"
	PowerStop   PowerAction = "stop"
	PowerStatus PowerAction = "status"
)

// ParsePowerAction validates a power action name.
func ParsePowerAction(s string) (PowerAction, error) {
	switch a := PowerAction(s); a {
	case PowerStart, PowerStop, PowerStatus:
		return a, nil
	default:
		return "", fmt.Errorf("unknown power action %q", s)
	}
}

// PowerController starts and stops monitored instances.
type PowerController struct {
	opener cloud.Opener
	logger *slog.Logger
}

// NewPowerController creates a power controller.
func NewPowerController(opener cloud.Opener, logger *slog.Logger) *PowerController {
	return &PowerController{opener: opener, logger: logger}
}

// Do performs action on the account's instance and returns a readable
// result. Start and stop are skipped when the instance is already in the
// target state.
func (p *PowerController) Do(ctx context.Context, account model.Account, action PowerAction) (string, error) {
	gw, err := p.opener.Open(ctx, account)
	if err != nil {
		return "", err
	}
	status, err := gw.InstanceStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("instance status: %w", err)
	}

	name := account.DisplayName()
	switch action {
	case PowerStop:
		if status == cloud.StatusStopped {
			return fmt.Sprintf("实例 %s 已经关闭", name), nil
		}
		if err := gw.StopInstance(ctx); err != nil {
			return "", fmt.Errorf("stop instance: %w", err)
		}
		p.logger.Info("instance stopping", "account", name, "instance_id", account.InstanceID)
		return fmt.Sprintf("实例 %s 正在关闭...", name), nil
	case PowerStart:
		if status == cloud.StatusRunning {
			return fmt.Sprintf("实例 %s 已经运行", name), nil
		}
		if err := gw.StartInstance(ctx); err != nil {
			return "", fmt.Errorf("start instance: %w", err)
		}
		p.logger.Info("instance starting", "account", name, "instance_id", account.InstanceID)
		return fmt.Sprintf("实例 %s 正在启动...", name), nil
	case PowerStatus:
		return fmt.Sprintf("实例 %s 状态: %s", name, status), nil
	default:
		return "", fmt.Errorf("unknown power action %q", action)
	}
}
