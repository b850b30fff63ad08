// Package health computes the status reported by the /health endpoint.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/rxcomposer/interfaces"
	"github.com/giygas/rxcomposer/medicines"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// StaleAutosave is the autosave age after which the session is reported degraded
// while the autosave tick is expected to run every few seconds.
const StaleAutosave = 5 * time.Minute

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store       interfaces.KVStore
	reference   interfaces.ReferenceStore
	autosaveAge func() time.Duration
	now         func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// autosaveAge may be nil.
func NewHealthChecker(store interfaces.KVStore, reference interfaces.ReferenceStore, autosaveAge func() time.Duration) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		store:       store,
		reference:   reference,
		autosaveAge: autosaveAge,
		now:         time.Now,
	}
}

// HealthCheck reports the store connectivity, the reference set and the
// autosave freshness.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	meds := h.reference.GetMedicines()
	source := h.reference.GetSource()
	lastLoaded := h.reference.GetLastLoaded()
	loading := h.reference.IsLoading()

	storeErr := h.store.Ping(ctx)

	var age time.Duration
	if h.autosaveAge != nil {
		age = h.autosaveAge()
	}

	switch {
	case storeErr != nil:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case len(meds) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case loading:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case age > StaleAutosave:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"medicines":        len(meds),
		"source":           source,
		"builtin_fallback": source == medicines.SourceBuiltin,
		"is_loading":       loading,
		"store":            "ok",
	}
	if storeErr != nil {
		data["store"] = storeErr.Error()
	}
	if !lastLoaded.IsZero() {
		data["last_load"] = lastLoaded.Format(time.RFC3339)
	}
	if age > 0 {
		data["autosave_age_seconds"] = math.Round(age.Seconds()*10) / 10
	}
	if start := h.reference.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = math.Round(h.now().Sub(start).Seconds())
	}

	return status, data, httpStatus
}
