package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giygas/rxcomposer/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		path         string
		expectedCost int64
	}{
		{"/health", 0},
		{"/metrics", 0},
		{"/api/suggestions", 1},
		{"/preview", 2},
		{"/print", 10},
		{"/export/pdf", 50},
		{"/export/xlsx", 50},
		{"/export/csv", 20},
		{"/export/json", 20},
		{"/api/branding/logo", 20},
		{"/api/cart", 2},
		{"/api/cart/0/edit", 2},
		{"/unknown", 2},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if got := getTokenCost(req); got != tt.expectedCost {
				t.Errorf("getTokenCost(%s) = %d, want %d", tt.path, got, tt.expectedCost)
			}
		})
	}
}

func TestBlockPublicAccessMiddleware(t *testing.T) {
	tests := []struct {
		remoteAddr string
		status     int
	}{
		{"127.0.0.1:1234", http.StatusOK},
		{"[::1]:1234", http.StatusOK},
		{"192.168.1.20:1234", http.StatusOK},
		{"10.0.0.5:1234", http.StatusOK},
		{"localhost", http.StatusOK},
		{"8.8.8.8:1234", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}

	handler := BlockPublicAccessMiddleware(okHandler)
	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestRealIPMiddleware(t *testing.T) {
	var seen string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 10.0.0.7 , 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "10.0.0.7" {
		t.Errorf("expected first forwarded address, got %q", seen)
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 16, MaxHeaderSize: 64}
	handler := RequestSizeMiddleware(cfg)(okHandler)

	t.Run("body too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(strings.Repeat("x", 17)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected 413, got %d", rec.Code)
		}
	})

	t.Run("headers too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		req.Header.Set("X-Padding", strings.Repeat("p", 100))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestHeaderFieldsTooLarge {
			t.Errorf("expected 431, got %d", rec.Code)
		}
	})

	t.Run("within limits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter()
	handler := rl.Handler(okHandler)

	// PDF exports cost 50 tokens, so a full bucket allows 20 of them
	allowed := 0
	for i := 0; i < 25; i++ {
		req := httptest.NewRequest(http.MethodGet, "/export/pdf", nil)
		req.RemoteAddr = "127.0.0.1:40000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		} else if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}
	if allowed < 20 || allowed > 21 {
		t.Errorf("expected about 20 allowed requests, got %d", allowed)
	}

	// Free endpoints stay reachable
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "127.0.0.1:40001"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health should not be rate limited, got %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	rl.getBucket("10.0.0.1")
	busy := rl.getBucket("10.0.0.2")
	busy.TakeAvailable(100)

	rl.cleanup()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Error("idle client should be removed")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Error("active client should be kept")
	}
	rl.Stop()
	rl.Stop()
}
