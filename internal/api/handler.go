package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eugenenazirov/seqforge/internal/config"
	"github.com/eugenenazirov/seqforge/internal/features"
	"github.com/eugenenazirov/seqforge/internal/report"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Source is the bootstrapped state served by the handlers.
type Source struct {
	Snapshot   *config.Snapshot
	ConfigPath string
	// Probe evaluates the optional features; called on every request.
	Probe func() []features.Set
	// Environ lists the live process environment.
	Environ func() []string
}

// Handler serves read-only diagnostics about the bootstrapped environment.
type Handler struct {
	source Source

	clock     func() time.Time
	startedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler over source.
func NewHandler(source Source, opts ...HandlerOption) *Handler {
	h := &Handler{
		source: source,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.source.Probe == nil {
		h.source.Probe = func() []features.Set { return nil }
	}
	h.startedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	now := h.clock()
	resp := healthResponse{
		Status:    "ok",
		Timestamp: now,
		Uptime:    now.Sub(h.startedAt).String(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEnv returns the resolved snapshot, or with ?source=process the
// namespaced variables currently set in the process environment.
func (h *Handler) handleEnv(w http.ResponseWriter, r *http.Request) {
	if h.source.Snapshot == nil {
		writeError(w, http.StatusServiceUnavailable, "Not ready", "environment has not been bootstrapped")
		return
	}

	switch src := r.URL.Query().Get("source"); src {
	case "", "snapshot":
		writeJSON(w, http.StatusOK, envResponse{
			Source:    "snapshot",
			Variables: report.FromSnapshot(h.source.Snapshot),
		})
	case "process":
		if h.source.Environ == nil {
			writeError(w, http.StatusNotImplemented, "Unavailable", "process environment is not exposed")
			return
		}
		writeJSON(w, http.StatusOK, envResponse{
			Source:    "process",
			Variables: report.Collect(h.source.Environ(), h.source.Snapshot.Prefix()),
		})
	default:
		writeError(w, http.StatusBadRequest, "Invalid request", "unknown source "+src, "use source=snapshot or source=process")
	}
}

func (h *Handler) handleFeatures(w http.ResponseWriter, r *http.Request) {
	_ = r
	sets := h.source.Probe()
	if sets == nil {
		sets = []features.Set{}
	}
	writeJSON(w, http.StatusOK, featuresResponse{
		Features:  sets,
		CheckedAt: h.clock(),
	})
}

func (h *Handler) handlePaths(w http.ResponseWriter, r *http.Request) {
	_ = r
	if h.source.Snapshot == nil {
		writeError(w, http.StatusServiceUnavailable, "Not ready", "environment has not been bootstrapped")
		return
	}
	snap := h.source.Snapshot
	writeJSON(w, http.StatusOK, pathsResponse{
		ConfigFile: h.source.ConfigPath,
		ConfigDir:  snap.ConfigDir(),
		DataDir:    snap.DataDir(),
		LogDir:     snap.LogDir(),
	})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type envResponse struct {
	Source    string       `json:"source"`
	Variables []report.Row `json:"variables"`
}

type featuresResponse struct {
	Features  []features.Set `json:"features"`
	CheckedAt time.Time      `json:"checkedAt"`
}

type pathsResponse struct {
	ConfigFile string `json:"configFile"`
	ConfigDir  string `json:"configDir"`
	DataDir    string `json:"dataDir"`
	LogDir     string `json:"logDir"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
