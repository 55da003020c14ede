// health.go — probes и метрики snapfeed.
//
//	/health/live  — процесс жив
//	/health/ready — готовность зависимостей: PostgreSQL и директория загрузок
//	                обязательны, Keycloak влияет только на degraded
//	/metrics      — Prometheus
package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/snapfeed/internal/config"
)

// serviceName — имя сервиса в ответах health endpoints.
const serviceName = "snapfeed"

// Статусы проверок.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// ReadinessChecker — проверка готовности одной зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// Check — именованная проверка readiness probe.
type Check struct {
	// Name — ключ в поле checks ответа.
	Name    string
	Checker ReadinessChecker
	// Critical — fail обязательной зависимости переводит сервис в fail (503),
	// необязательной — только в degraded.
	Critical bool
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	checks      []Check
	promHandler http.Handler
	now         func() time.Time
}

// NewHealthHandler создаёт обработчик health endpoints.
// Проверка без Checker обязательной зависимости считается fail,
// необязательной — пропускается.
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{
		checks:      checks,
		promHandler: promhttp.Handler(),
		now:         time.Now,
	}
}

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	Service   string                 `json:"service"`
	Checks    map[string]checkResult `json:"checks,omitempty"`
}

func (h *HealthHandler) response(status string) healthResponse {
	return healthResponse{
		Status:    status,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}
}

// HealthLive — liveness probe, всегда 200.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.response(statusOK))
}

// HealthReady — readiness probe: 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := h.response(statusOK)
	resp.Checks = make(map[string]checkResult, len(h.checks))

	for _, c := range h.checks {
		var res checkResult
		switch {
		case c.Checker != nil:
			res.Status, res.Message = c.Checker.CheckReady()
		case c.Critical:
			res = checkResult{Status: statusFail, Message: "не инициализирован"}
		default:
			continue
		}
		resp.Checks[c.Name] = res
		resp.Status = worse(resp.Status, effective(res.Status, c.Critical))
	}

	code := http.StatusOK
	if resp.Status == statusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// effective — вклад проверки в итоговый статус.
func effective(status string, critical bool) string {
	if status == statusFail && !critical {
		return statusDegraded
	}
	return status
}

func worse(a, b string) string {
	rank := func(s string) int {
		switch s {
		case statusOK:
			return 0
		case statusDegraded:
			return 1
		default:
			return 2
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
