package handlers

import (
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/httpx"
	"varanasihub.com/site/internal/platform/requestctx"
	"varanasihub.com/site/internal/services"
)

// HealthHandlers serve liveness and readiness checks.
type HealthHandlers struct {
	service   services.HealthService
	clock     func() time.Time
	startedAt time.Time
}

// HealthOption customises health handlers.
type HealthOption func(*HealthHandlers)

// WithHealthService sets the dependency health service used by /readyz.
func WithHealthService(svc services.HealthService) HealthOption {
	return func(h *HealthHandlers) {
		h.service = svc
	}
}

// WithHealthClock injects a custom clock.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs the health handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.startedAt = h.clock()
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    domain.HealthStatusOK,
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz reports dependency health; any non-ok check yields 503.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		h.Healthz(w, r)
		return
	}
	ctx := r.Context()
	report, err := h.service.HealthReport(ctx)
	if err != nil {
		requestctx.Logger(ctx).Error("health report failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("health_unavailable", "health report failed", http.StatusServiceUnavailable))
		return
	}

	names := make([]string, 0, len(report.Checks))
	for name := range report.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]any, len(report.Checks))
	details := []string{}
	for _, name := range names {
		check := report.Checks[name]
		entry := map[string]any{
			"status":    check.Status,
			"latencyMs": check.Latency.Milliseconds(),
		}
		if check.Detail != "" {
			entry["detail"] = check.Detail
			details = append(details, name+": "+check.Detail)
		}
		checks[name] = entry
	}

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = h.clock()
	}
	httpx.WriteJSON(w, status, map[string]any{
		"status":      report.Status,
		"checks":      checks,
		"details":     details,
		"generatedAt": generated.UTC().Format(time.RFC3339),
	})
}
