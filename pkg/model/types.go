package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Account is a single monitored cloud account and instance.
type Account struct {
	Name            string  `mapstructure:"name" json:"name"`
	Provider        string  `mapstructure:"provider" json:"provider" validate:"omitempty,oneof=aliyun aws"`
	AccessKeyID     string  `mapstructure:"access_key_id" json:"access_key_id" validate:"required"`
	AccessKeySecret string  `mapstructure:"access_key_secret" json:"-" validate:"required"`
	Region          string  `mapstructure:"region" json:"region" validate:"required"`
	InstanceID      string  `mapstructure:"instance_id" json:"instance_id" validate:"required"`
	MaxTrafficGB    float64 `mapstructure:"max_traffic_gb" json:"max_traffic_gb" validate:"gte=0"`
}

// DisplayName returns the account name, or a masked access key id when no
// name was configured.
func (a Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	id := a.AccessKeyID
	if len(id) > 7 {
		id = id[:7]
	}
	return id + "***"
}

// RuleState is the remote state of the monitored ingress rule.
type RuleState bool

const (
	RuleDisabled RuleState = false
	RuleEnabled  RuleState = true
)

func (s RuleState) String() string {
	if s {
		return "enabled"
	}
	return "disabled"
}

// Assessment is the usage evaluation of one traffic sample against a cap.
type Assessment struct {
	TrafficGB     float64 `json:"traffic_gb"`
	CapGB         float64 `json:"cap_gb"`
	UsagePct      float64 `json:"usage_pct"`
	ThresholdPct  float64 `json:"threshold_pct"`
	OverThreshold bool    `json:"over_threshold"`
}

// Instance holds the instance details shown in logs and notifications.
type Instance struct {
	ID               string
	ExpiredTime      string
	PublicIP         string
	Status           string
	SecurityGroupIDs []string
}

// Placeholders used when the vendor omits instance details.
const (
	NoExpiry   = "无到期时间"
	NoPublicIP = "无公网 IP 地址"
)

// Notification outcomes recorded in the run log.
const (
	NotifySuccess     = "成功"
	NotifyNotRequired = "不需要"
)

// RunLogEntry is one account's record in the run log. Error entries only
// carry InstanceID, Server and Error, in that order.
type RunLogEntry struct {
	InstanceID    string
	Server        string
	CapGB         float64
	UsedGB        float64
	UsagePct      float64
	Region        string
	ExpiredTime   string
	PublicIP      string
	ThresholdPct  float64
	OverThreshold bool
	RuleState     string
	Notification  string
	Error         string
}

// IsError reports whether the entry records a failed account.
func (e RunLogEntry) IsError() bool { return e.Error != "" }

// MarshalJSON renders the entry with the external labels in a fixed order.
func (e RunLogEntry) MarshalJSON() ([]byte, error) {
	w := &orderedObject{}
	if e.IsError() {
		if e.InstanceID != "" {
			w.add("实例ID", e.InstanceID)
		}
		w.add("服务器", e.Server)
		w.add("错误信息", e.Error)
		return w.bytes()
	}

	w.add("实例ID", e.InstanceID)
	w.add("服务器", e.Server)
	w.add("总流量", FormatGB(e.CapGB))
	w.add("已使用流量", FormatGB(e.UsedGB))
	w.add("使用百分比", FormatPct(e.UsagePct))
	w.add("地区", e.Region)
	w.add("实例到期时间", e.ExpiredTime)
	w.add("公网IP地址", e.PublicIP)
	w.add(ThresholdLabel(e.ThresholdPct), yesNo(e.OverThreshold))
	if e.RuleState != "" {
		w.add("安全组状态", e.RuleState)
	}
	if e.Notification != "" {
		w.add("通知发送", e.Notification)
	}
	return w.bytes()
}

// RunLog is the snapshot written after every check.
type RunLog struct {
	Timestamp string        `json:"获取时间"`
	Entries   []RunLogEntry `json:"日志"`
}

// TimestampLayout is the layout of RunLog.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// ThresholdLabel returns the run log label for the over-threshold flag.
func ThresholdLabel(thresholdPct float64) string {
	return fmt.Sprintf("使用率达到%s%%", FormatNumber(thresholdPct))
}

// FormatNumber prints a float without trailing zeros (96 not 96.00).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatGB renders a traffic amount rounded to two decimals, e.g. "96.46GB".
func FormatGB(v float64) string {
	return FormatNumber(Round2(v)) + "GB"
}

// FormatPct renders a percentage, e.g. "96%".
func FormatPct(v float64) string {
	return FormatNumber(v) + "%"
}

// BillingPeriodStart returns the first instant of the calendar month of now
// in loc.
func BillingPeriodStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

type orderedObject struct {
	buf bytes.Buffer
	err error
}

func (o *orderedObject) add(key string, value any) {
	if o.err != nil {
		return
	}
	if o.buf.Len() == 0 {
		o.buf.WriteByte('{')
	} else {
		o.buf.WriteByte(',')
	}
	o.encode(key)
	o.buf.WriteByte(':')
	o.encode(value)
}

// encode writes v without HTML escaping and without the trailing newline
// json.Encoder adds.
func (o *orderedObject) encode(v any) {
	if o.err != nil {
		return
	}
	enc := json.NewEncoder(&o.buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		o.err = err
		return
	}
	o.buf.Truncate(o.buf.Len() - 1)
}

func (o *orderedObject) bytes() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	if o.buf.Len() == 0 {
		return []byte("{}"), nil
	}
	o.buf.WriteByte('}')
	return o.buf.Bytes(), nil
}

// Round2 rounds v to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
