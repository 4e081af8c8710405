package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus статус здоровья компонента
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth здоровье отдельного компонента
type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"latency,omitempty"`
}

// HealthCheckResult результат проверки здоровья системы
type HealthCheckResult struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     time.Duration              `json:"uptime"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components"`
	Goroutines int                        `json:"goroutines"`
}

// PingFunc проверка доступности зависимости
type PingFunc func(ctx context.Context) error

type component struct {
	ping PingFunc
	// critical: недоступность делает сервис unhealthy, иначе degraded
	critical bool
}

// HealthChecker проверяет здоровье системы
type HealthChecker struct {
	mu         sync.RWMutex
	components map[string]component
	startTime  time.Time
	version    string
}

// NewHealthChecker создает новый HealthChecker
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		components: make(map[string]component),
		startTime:  time.Now(),
		version:    version,
	}
}

// RegisterComponent регистрирует компонент для проверки здоровья
func (hc *HealthChecker) RegisterComponent(name string, critical bool, ping PingFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.components[name] = component{ping: ping, critical: critical}
}

// Check выполняет проверку здоровья всех компонентов
func (hc *HealthChecker) Check(ctx context.Context) HealthCheckResult {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.components))
	for name := range hc.components {
		names = append(names, name)
	}
	hc.mu.RUnlock()
	sort.Strings(names)

	components := make(map[string]ComponentHealth, len(names))
	overallStatus := HealthStatusHealthy

	for _, name := range names {
		hc.mu.RLock()
		comp := hc.components[name]
		hc.mu.RUnlock()

		start := time.Now()
		err := comp.ping(ctx)
		health := ComponentHealth{
			Name:      name,
			Status:    HealthStatusHealthy,
			Timestamp: time.Now(),
			Latency:   time.Since(start),
		}
		if err != nil {
			health.Message = fmt.Sprintf("%s error: %v", name, err)
			if comp.critical {
				health.Status = HealthStatusUnhealthy
				overallStatus = HealthStatusUnhealthy
			} else {
				// конвейер работает и без этого компонента
				health.Status = HealthStatusDegraded
				if overallStatus == HealthStatusHealthy {
					overallStatus = HealthStatusDegraded
				}
			}
		}
		components[name] = health
	}

	return HealthCheckResult{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Uptime:     time.Since(hc.startTime),
		Version:    hc.version,
		Components: components,
		Goroutines: runtime.NumGoroutine(),
	}
}
