// Package handlers binds the composer commands to HTTP. Every handler works
// on the single shared session; the core packages stay free of HTTP concerns.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/export"
	"github.com/giygas/rxcomposer/interfaces"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/session"
	"github.com/giygas/rxcomposer/suggest"
)

// HTTPHandlerImpl serves the composer commands
type HTTPHandlerImpl struct {
	session   *session.Session
	matcher   *suggest.Matcher
	validator interfaces.DataValidator
	health    interfaces.HealthChecker
	pdf       *export.PDFRenderer
	startTime time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(sess *session.Session, matcher *suggest.Matcher, validator interfaces.DataValidator, health interfaces.HealthChecker, pdf *export.PDFRenderer) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		session:   sess,
		matcher:   matcher,
		validator: validator,
		health:    health,
		pdf:       pdf,
		startTime: time.Now(),
	}
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	if notices := h.session.DrainNotices(); len(notices) > 0 {
		errorResponse["notices"] = notices
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// decodeBody reads a JSON request body into v, rejecting unknown fields
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// confirmation answers the prompt of a destructive command from the
// ?confirm=true query parameter and remembers the prompt it was asked.
type confirmation struct {
	granted bool
	prompt  string
}

func newConfirmation(r *http.Request) *confirmation {
	return &confirmation{granted: r.URL.Query().Get("confirm") == "true"}
}

func (c *confirmation) ask(prompt string) bool {
	c.prompt = prompt
	return c.granted
}

// respondNotConfirmed turns a declined confirmation into a 409 carrying the prompt
func (h *HTTPHandlerImpl) respondNotConfirmed(w http.ResponseWriter, c *confirmation) {
	msg := "confirmation required"
	if c.prompt != "" {
		msg = c.prompt + " Repeat the request with ?confirm=true"
	}
	h.RespondWithError(w, http.StatusConflict, msg)
}

// SuggestionsResponse is the body of GET /api/suggestions
type SuggestionsResponse struct {
	Query       string              `json:"query"`
	Suggestions []entities.Medicine `json:"suggestions"`
}

// Suggestions matches the query against the reference set
func (h *HTTPHandlerImpl) Suggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	if err := h.validator.ValidateQuery(query); err != nil {
		logging.Warn("Unusual user input", "query", query, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	query = strings.TrimSpace(query)
	h.RespondWithJSON(w, http.StatusOK, SuggestionsResponse{
		Query:       query,
		Suggestions: h.matcher.Match(query),
	})
}

// HealthCheck returns the composer health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.health.HealthCheck(r.Context())

	response := HealthResponse{
		Status: status,
		Uptime: formatUptimeHuman(time.Since(h.startTime)),
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
