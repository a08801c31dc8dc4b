package monitoring

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/codec"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/registry"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string                 `json:"name"`
	Status      HealthStatus           `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Critical    bool                   `json:"critical"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Check(ctx context.Context) HealthCheck
	Name() string
	IsCritical() bool
}

// HealthCheckFunc is a function that implements HealthChecker
type HealthCheckFunc struct {
	name     string
	checkFn  func(ctx context.Context) HealthCheck
	critical bool
}

// Check executes the health check function
func (h *HealthCheckFunc) Check(ctx context.Context) HealthCheck {
	return h.checkFn(ctx)
}

// Name returns the health check name
func (h *HealthCheckFunc) Name() string {
	return h.name
}

// IsCritical returns whether this check is critical
func (h *HealthCheckFunc) IsCritical() bool {
	return h.critical
}

// NewHealthCheckFunc creates a new health check function
func NewHealthCheckFunc(
	name string,
	critical bool,
	checkFn func(ctx context.Context) HealthCheck,
) *HealthCheckFunc {
	return &HealthCheckFunc{
		name:     name,
		checkFn:  checkFn,
		critical: critical,
	}
}

// HealthMonitor runs registered checks on demand.
type HealthMonitor struct {
	checks  map[string]HealthChecker
	mutex   sync.RWMutex
	logger  logging.Logger
	timeout time.Duration
	started time.Time
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status     HealthStatus           `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Uptime     time.Duration          `json:"uptime"`
	Checks     map[string]HealthCheck `json:"checks"`
	Summary    HealthSummary          `json:"summary"`
	SystemInfo SystemInfo             `json:"system_info"`
}

// HealthSummary provides a summary of health check results
type HealthSummary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Degraded  int `json:"degraded"`
	Unknown   int `json:"unknown"`
	Critical  int `json:"critical"`
}

// SystemInfo provides system information
type SystemInfo struct {
	Hostname  string    `json:"hostname"`
	Platform  string    `json:"platform"`
	GoVersion string    `json:"go_version"`
	StartTime time.Time `json:"start_time"`
	PID       int       `json:"pid"`
}

// NewHealthMonitor creates a new health monitor. A nil logger discards
// output.
func NewHealthMonitor(logger logging.Logger) *HealthMonitor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HealthMonitor{
		checks:  make(map[string]HealthChecker),
		logger:  logger.WithComponent("health_monitor"),
		timeout: 5 * time.Second,
		started: time.Now(),
	}
}

// RegisterCheck registers a health check
func (hm *HealthMonitor) RegisterCheck(checker HealthChecker) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.checks[checker.Name()] = checker
}

// Names lists the registered checks.
func (hm *HealthMonitor) Names() []string {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	names := make([]string, 0, len(hm.checks))
	for name := range hm.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetHealth runs every check concurrently and reports the result.
func (hm *HealthMonitor) GetHealth(ctx context.Context) HealthResponse {
	hm.mutex.RLock()
	checks := make([]HealthChecker, 0, len(hm.checks))
	for _, checker := range hm.checks {
		checks = append(checks, checker)
	}
	hm.mutex.RUnlock()

	var wg sync.WaitGroup
	resultsChan := make(chan HealthCheck, len(checks))

	for _, checker := range checks {
		wg.Add(1)
		go func(checker HealthChecker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
			defer cancel()

			start := time.Now()
			result := checker.Check(checkCtx)
			result.Name = checker.Name()
			result.Critical = checker.IsCritical()
			result.Duration = time.Since(start)
			result.LastChecked = time.Now()

			resultsChan <- result
		}(checker)
	}
	wg.Wait()
	close(resultsChan)

	results := make(map[string]HealthCheck, len(checks))
	for result := range resultsChan {
		results[result.Name] = result

		if result.Status != HealthStatusHealthy {
			hm.logger.Warn(ctx, nil, "Health check failed",
				"name", result.Name,
				"status", string(result.Status),
				"message", result.Message)
		}
	}

	return HealthResponse{
		Status:     calculateOverallStatus(results),
		Timestamp:  time.Now(),
		Uptime:     time.Since(hm.started),
		Checks:     results,
		Summary:    calculateSummary(results),
		SystemInfo: hm.systemInfo(),
	}
}

func calculateSummary(checks map[string]HealthCheck) HealthSummary {
	summary := HealthSummary{
		Total: len(checks),
	}

	for _, check := range checks {
		switch check.Status {
		case HealthStatusHealthy:
			summary.Healthy++
		case HealthStatusUnhealthy:
			summary.Unhealthy++
		case HealthStatusDegraded:
			summary.Degraded++
		default:
			summary.Unknown++
		}

		if check.Critical {
			summary.Critical++
		}
	}

	return summary
}

// calculateOverallStatus is unhealthy when a critical check fails and
// degraded when any other check is not healthy.
func calculateOverallStatus(checks map[string]HealthCheck) HealthStatus {
	status := HealthStatusHealthy
	for _, check := range checks {
		switch {
		case check.Critical && check.Status == HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case check.Status != HealthStatusHealthy:
			status = HealthStatusDegraded
		}
	}
	return status
}

func (hm *HealthMonitor) systemInfo() SystemInfo {
	hostname, _ := os.Hostname()

	return SystemInfo{
		Hostname:  hostname,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		GoVersion: runtime.Version(),
		StartTime: hm.started,
		PID:       os.Getpid(),
	}
}

// CodecHealthChecker encodes a bench holding one component of every kind
// in reg and decodes it again. A failure means links written now could
// not be opened.
func CodecHealthChecker(reg *registry.Registry, opts ...codec.Option) HealthChecker {
	encoder := codec.NewEncoder(opts...)
	decoder := codec.NewDecoder(reg, opts...)

	return NewHealthCheckFunc("codec", true, func(ctx context.Context) HealthCheck {
		state := make(bench.State, 0, reg.Len())
		for i, k := range reg.Kinds() {
			state = append(state, bench.New("", k, float64(i*10), 0, 0))
		}

		token := encoder.Encode(state)
		decoded, err := decoder.Decode(token)
		if err != nil {
			return HealthCheck{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("Round trip failed: %v", err),
			}
		}

		for i := range state {
			if i >= len(decoded) || decoded[i].Kind.Tag != state[i].Kind.Tag {
				return HealthCheck{
					Status:  HealthStatusUnhealthy,
					Message: fmt.Sprintf("Round trip changed component %d", i),
				}
			}
		}

		return HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "Tokens round trip",
			Metadata: map[string]interface{}{
				"kinds":        reg.Len(),
				"token_length": len(token),
			},
		}
	})
}

// MemoryHealthChecker checks memory usage
func MemoryHealthChecker() HealthChecker {
	return NewHealthCheckFunc("memory", true, func(ctx context.Context) HealthCheck {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		const maxHeapSize = 1 << 30

		status := HealthStatusHealthy
		message := "Memory usage is normal"

		if mem.HeapAlloc > maxHeapSize {
			status = HealthStatusDegraded
			message = fmt.Sprintf("High memory usage: %d bytes", mem.HeapAlloc)
		}

		return HealthCheck{
			Status:  status,
			Message: message,
			Metadata: map[string]interface{}{
				"heap_alloc": mem.HeapAlloc,
				"heap_sys":   mem.HeapSys,
				"gc_runs":    mem.NumGC,
			},
		}
	})
}

// GoroutineHealthChecker checks for goroutine leaks
func GoroutineHealthChecker() HealthChecker {
	return NewHealthCheckFunc("goroutines", false, func(ctx context.Context) HealthCheck {
		goroutines := runtime.NumGoroutine()

		status := HealthStatusHealthy
		message := "Goroutine count is normal"

		if goroutines > 1000 {
			status = HealthStatusDegraded
			message = fmt.Sprintf("High goroutine count: %d", goroutines)
		}

		if goroutines > 10000 {
			status = HealthStatusUnhealthy
			message = fmt.Sprintf("Very high goroutine count: %d", goroutines)
		}

		return HealthCheck{
			Status:   status,
			Message:  message,
			Metadata: map[string]interface{}{"count": goroutines},
		}
	})
}
