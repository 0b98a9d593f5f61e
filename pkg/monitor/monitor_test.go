package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStatusFiresAlertOnTransition(t *testing.T) {
	var alerts []string
	mon := NewMonitor(func(component, status, message string) {
		alerts = append(alerts, component+":"+status)
	})
	mon.RegisterComponent("market-cycle")

	mon.UpdateStatus("market-cycle", "healthy", "")
	assert.Empty(t, alerts)

	mon.UpdateStatus("market-cycle", "unhealthy", "行情周期失败")
	assert.Equal(t, []string{"market-cycle:unhealthy"}, alerts)

	// 状态未变化不重复告警
	mon.UpdateStatus("market-cycle", "unhealthy", "行情周期失败")
	assert.Len(t, alerts, 1)
}

func TestGetStatusReturnsLatest(t *testing.T) {
	mon := NewMonitor(nil)
	mon.RegisterComponent("nats")
	mon.UpdateStatus("nats", "unhealthy", "连接断开")

	status := mon.GetStatus("nats")
	require.NotNil(t, status)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "连接断开", status.Message)

	assert.Nil(t, mon.GetStatus("unknown-component"))
}

func TestGetAllStatusListsEveryComponent(t *testing.T) {
	mon := NewMonitor(nil)
	mon.RegisterComponent("database")
	mon.RegisterComponent("nats")
	mon.UpdateStatus("database", "healthy", "")

	statuses := mon.GetAllStatus()
	require.Len(t, statuses, 2)
	byName := make(map[string]string, len(statuses))
	for _, s := range statuses {
		byName[s.Component] = s.Status
	}
	assert.Equal(t, "healthy", byName["database"])
	assert.Equal(t, "unknown", byName["nats"])
}

func TestHealthyToleratesDegradedButNotUnhealthy(t *testing.T) {
	mon := NewMonitor(nil)
	mon.RegisterComponent("database")
	mon.RegisterComponent("nats")
	mon.UpdateStatus("database", "healthy", "")
	assert.True(t, mon.Healthy())

	// 降级不阻断就绪，发布侧已有空操作兜底
	mon.UpdateStatus("nats", "degraded", "消息发布降级为空操作")
	assert.True(t, mon.Healthy())

	mon.UpdateStatus("nats", "unhealthy", "NATS连接断开")
	assert.False(t, mon.Healthy())

	mon.UpdateStatus("nats", "healthy", "")
	assert.True(t, mon.Healthy())
}
