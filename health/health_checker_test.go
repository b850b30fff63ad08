package health

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/giygas/rxcomposer/data"
	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/medicines"
	"github.com/giygas/rxcomposer/storage"
)

func loadedContainer(source string) *data.DataContainer {
	dc := data.NewDataContainer()
	dc.UpdateData([]entities.Medicine{{Name: "Paracetamol", Strength: "500 mg", Form: "Tab"}}, source)
	return dc
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setup          func() (*storage.MemoryStore, *data.DataContainer)
		autosaveAge    time.Duration
		expectedStatus string
		expectedHTTP   int
	}{
		{
			name: "healthy",
			setup: func() (*storage.MemoryStore, *data.DataContainer) {
				return storage.NewMemoryStore(), loadedContainer("medicines.json")
			},
			autosaveAge:    3 * time.Second,
			expectedStatus: "healthy",
			expectedHTTP:   http.StatusOK,
		},
		{
			name: "store unavailable",
			setup: func() (*storage.MemoryStore, *data.DataContainer) {
				s := storage.NewMemoryStore()
				s.SetFailing(true)
				return s, loadedContainer("medicines.json")
			},
			expectedStatus: "unhealthy",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
		{
			name: "empty reference set",
			setup: func() (*storage.MemoryStore, *data.DataContainer) {
				return storage.NewMemoryStore(), data.NewDataContainer()
			},
			expectedStatus: "unhealthy",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
		{
			name: "load in progress",
			setup: func() (*storage.MemoryStore, *data.DataContainer) {
				dc := loadedContainer("medicines.json")
				dc.BeginUpdate()
				return storage.NewMemoryStore(), dc
			},
			expectedStatus: "degraded",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
		{
			name: "stale autosave",
			setup: func() (*storage.MemoryStore, *data.DataContainer) {
				return storage.NewMemoryStore(), loadedContainer(medicines.SourceBuiltin)
			},
			autosaveAge:    StaleAutosave + time.Second,
			expectedStatus: "degraded",
			expectedHTTP:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, dc := tt.setup()
			checker := NewHealthChecker(store, dc, func() time.Duration { return tt.autosaveAge })

			status, details, code := checker.HealthCheck(context.Background())
			if status != tt.expectedStatus {
				t.Errorf("expected status %q, got %q", tt.expectedStatus, status)
			}
			if code != tt.expectedHTTP {
				t.Errorf("expected HTTP %d, got %d", tt.expectedHTTP, code)
			}
			if details == nil {
				t.Fatal("details should never be nil")
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	dc := loadedContainer(medicines.SourceBuiltin)
	start := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	dc.SetServerStartTime(start)

	checker := NewHealthChecker(storage.NewMemoryStore(), dc, nil)
	checker.now = func() time.Time { return start.Add(90 * time.Second) }

	_, details, _ := checker.HealthCheck(context.Background())

	if details["medicines"] != 1 {
		t.Errorf("expected 1 medicine, got %v", details["medicines"])
	}
	if details["builtin_fallback"] != true {
		t.Error("builtin source should be flagged")
	}
	if details["store"] != "ok" {
		t.Errorf("unexpected store detail %v", details["store"])
	}
	if details["uptime_seconds"] != float64(90) {
		t.Errorf("expected 90s uptime, got %v", details["uptime_seconds"])
	}
	if _, ok := details["autosave_age_seconds"]; ok {
		t.Error("autosave age should be absent without an autosave")
	}
	if _, ok := details["last_load"]; !ok {
		t.Error("last_load should be reported after a load")
	}
}
