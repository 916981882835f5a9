package health

import (
	"sort"
	"sync"
	"time"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/pkg/bridge"
)

// Status 合作方健康状态
type Status struct {
	Healthy      bool      `json:"healthy"`
	Ready        bool      `json:"ready"`
	FailureCount int       `json:"failure_count"`
	SuccessCount int       `json:"success_count"`
	LastCheck    time.Time `json:"last_check"`
	LastError    string    `json:"last_error,omitempty"`
	LastKind     string    `json:"last_error_kind,omitempty"`
}

// Checker 健康检查器
type Checker struct {
	failureThreshold int
	successThreshold int
	now              func() time.Time
	mu               sync.RWMutex
	status           map[string]*Status
}

// NewChecker 创建健康检查器
func NewChecker(failureThreshold, successThreshold int) *Checker {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	if successThreshold <= 0 {
		successThreshold = 1
	}
	return &Checker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		now:              time.Now,
		status:           make(map[string]*Status),
	}
}

// countsAgainstHealth reports whether a failure says something about the
// partner itself. No fill and caller mistakes do not.
func countsAgainstHealth(kind mediation.ErrorKind) bool {
	switch kind {
	case mediation.PartnerError, mediation.AdServerError, mediation.NoConnectivity,
		mediation.InitializationFailure, mediation.InvalidConfiguration:
		return true
	default:
		return false
	}
}

func (c *Checker) entry(id string) *Status {
	status, exists := c.status[id]
	if !exists {
		status = &Status{Healthy: true, LastCheck: c.now()}
		c.status[id] = status
	}
	return status
}

// Record 记录一次生命周期调用结果。调用方放弃等待不代表合作方异常，忽略
func (c *Checker) Record(id string, err error) {
	if bridge.IsAbandoned(err) {
		return
	}
	if err != nil {
		if kind, _ := mediation.KindOf(err); !countsAgainstHealth(kind) {
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.entry(id)
	status.LastCheck = c.now()

	if err == nil {
		status.SuccessCount++
		status.FailureCount = 0
		status.LastError = ""
		status.LastKind = ""

		if status.SuccessCount >= c.successThreshold {
			status.Healthy = true
		}
		return
	}

	kind, _ := mediation.KindOf(err)
	status.FailureCount++
	status.SuccessCount = 0
	status.LastError = err.Error()
	status.LastKind = kind.String()

	if status.FailureCount >= c.failureThreshold {
		status.Healthy = false
	}
}

// MarkReady 标记合作方初始化结果
func (c *Checker) MarkReady(id string, ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry(id).Ready = ready
}

// IsHealthy 检查是否健康，未知合作方默认健康
func (c *Checker) IsHealthy(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status, exists := c.status[id]
	if !exists {
		return true
	}
	return status.Healthy
}

// Ready reports whether every id finished setup and is healthy.
func (c *Checker) Ready(ids []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range ids {
		status, exists := c.status[id]
		if !exists || !status.Ready || !status.Healthy {
			return false
		}
	}
	return true
}

// Get 获取健康状态副本
func (c *Checker) Get(id string) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status, exists := c.status[id]
	if !exists {
		return Status{Healthy: true, LastCheck: c.now()}
	}
	return *status
}

// All 获取所有健康状态
func (c *Checker) All() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Status, len(c.status))
	for id, status := range c.status {
		result[id] = *status
	}
	return result
}

// IDs returns the tracked partner ids in order.
func (c *Checker) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.status))
	for id := range c.status {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
