package monitor

import (
	"sync"
	"time"
)

// HealthStatus 健康状态
type HealthStatus struct {
	Component   string    `json:"component"`
	Status      string    `json:"status"`
	LastChecked time.Time `json:"last_checked"`
	Message     string    `json:"message,omitempty"`
}

// Monitor 组件健康跟踪。调度器在每轮任务后上报状态，
// 状态转为不健康时触发告警回调。
type Monitor struct {
	components map[string]*HealthStatus
	mutex      sync.RWMutex
	alertFunc  func(component, status, message string)
}

// NewMonitor 创建新的监控系统
func NewMonitor(alertFunc func(component, status, message string)) *Monitor {
	return &Monitor{
		components: make(map[string]*HealthStatus),
		alertFunc:  alertFunc,
	}
}

// RegisterComponent 注册组件
func (m *Monitor) RegisterComponent(component string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.components[component] = &HealthStatus{
		Component:   component,
		Status:      "unknown",
		LastChecked: time.Now(),
	}
}

// UpdateStatus 更新组件状态
func (m *Monitor) UpdateStatus(component, status, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.components[component]; !exists {
		m.components[component] = &HealthStatus{
			Component: component,
		}
	}

	oldStatus := m.components[component].Status
	m.components[component].Status = status
	m.components[component].LastChecked = time.Now()
	m.components[component].Message = message

	// 如果状态变为不健康，触发告警
	if oldStatus != status && status != "healthy" && m.alertFunc != nil {
		m.alertFunc(component, status, message)
	}
}

// GetStatus 获取组件状态
func (m *Monitor) GetStatus(component string) *HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if status, exists := m.components[component]; exists {
		return status
	}

	return nil
}

// GetAllStatus 获取所有组件状态
func (m *Monitor) GetAllStatus() []*HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	statuses := make([]*HealthStatus, 0, len(m.components))
	for _, status := range m.components {
		statuses = append(statuses, status)
	}

	return statuses
}

// Healthy 所有已注册组件是否都处于健康状态
func (m *Monitor) Healthy() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, status := range m.components {
		if status.Status == "unhealthy" {
			return false
		}
	}
	return true
}
