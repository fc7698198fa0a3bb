package tracker

import (
	"strings"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// DefaultTitle is the notification title when none is configured.
const DefaultTitle = "CDT流量统计"

type lines struct{ b strings.Builder }

func (l *lines) add(label, value string) {
	l.b.WriteString(label)
	l.b.WriteString(": ")
	l.b.WriteString(value)
	l.b.WriteByte('\n')
}

// AlertMessage formats the notification sent after a rule transition.
func AlertMessage(title string, e model.RunLogEntry) alerts.Message {
	var l lines
	l.add("服务器", e.Server)
	l.add("实例ID", e.InstanceID)
	l.add("实例IP", e.PublicIP)
	l.add("到期时间", e.ExpiredTime)
	l.add("CDT总流量", model.FormatGB(e.CapGB))
	l.add("已使用流量", model.FormatGB(e.UsedGB))
	l.add("使用百分比", model.FormatPct(e.UsagePct))
	l.add("地区", e.Region)
	l.add("安全组状态", e.RuleState)
	return alerts.Message{Title: title, Body: l.b.String()}
}

// ErrorMessage formats the best-effort notification for a failed account.
func ErrorMessage(title string, e model.RunLogEntry) alerts.Message {
	var l lines
	l.b.WriteString("⚠️ 错误通知\n")
	l.add("服务器", e.Server)
	l.add("错误信息", e.Error)
	if e.InstanceID != "" {
		l.add("实例ID", e.InstanceID)
	}
	return alerts.Message{Title: title, Body: l.b.String()}
}

// DigestMessage formats the daily usage summary.
func DigestMessage(title string, e model.RunLogEntry, bar ProgressBar) alerts.Message {
	var l lines
	l.add("账号名称", e.Server)
	l.add("实例ID", e.InstanceID)
	l.add("实例IP", e.PublicIP)
	l.add("到期时间", e.ExpiredTime)
	l.add("CDT总流量", model.FormatGB(e.CapGB))
	l.add("已使用流量", model.FormatGB(e.UsedGB))
	l.add("使用百分比", model.FormatPct(e.UsagePct))
	l.add("使用进度", bar.Render(e.UsagePct))
	l.add("地区", e.Region)
	l.add("安全组状态", "启用")
	return alerts.Message{Title: title, Body: l.b.String()}
}
