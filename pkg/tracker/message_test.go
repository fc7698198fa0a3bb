package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/tracker"
)

func TestAlertMessage(t *testing.T) {
	msg := tracker.AlertMessage("标题", model.RunLogEntry{
		Server:      "hk-1",
		InstanceID:  "i-1",
		PublicIP:    "47.1.2.3",
		ExpiredTime: model.NoExpiry,
		CapGB:       200,
		UsedGB:      12.3456,
		UsagePct:    6.17,
		Region:      "中国香港",
		RuleState:   tracker.DescRestored,
	})

	want := "服务器: hk-1\n" +
		"实例ID: i-1\n" +
		"实例IP: 47.1.2.3\n" +
		"到期时间: 无到期时间\n" +
		"CDT总流量: 200GB\n" +
		"已使用流量: 12.35GB\n" +
		"使用百分比: 6.17%\n" +
		"地区: 中国香港\n" +
		"安全组状态: 已恢复 0.0.0.0 访问规则\n"
	assert.Equal(t, "标题", msg.Title)
	assert.Equal(t, want, msg.Body)
}

func TestErrorMessage(t *testing.T) {
	msg := tracker.ErrorMessage("标题", model.RunLogEntry{Server: "hk-1", Error: "服务器异常: x"})
	assert.Equal(t, "⚠️ 错误通知\n服务器: hk-1\n错误信息: 服务器异常: x\n", msg.Body)

	msg = tracker.ErrorMessage("标题", model.RunLogEntry{Server: "hk-1", InstanceID: "i-1", Error: "e"})
	assert.Contains(t, msg.Body, "实例ID: i-1\n")
}
