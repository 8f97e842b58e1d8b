package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Server serves tool calls over HTTP:
//
//	POST /tool     execute a tool call
//	GET  /schema   tool schema for agent registration
//	GET  /health   liveness check
//	GET  /metrics  Prometheus metrics
type Server struct {
	log      *slog.Logger
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	now      func() time.Time
}

// NewServer returns a Server with its own metrics registry. A nil logger
// discards output.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		log:      logger,
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "progdiff",
			Name:      "tool_calls_total",
			Help:      "Tool calls by tool and outcome.",
		}, []string{"tool", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "progdiff",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"tool"}),
		now: time.Now,
	}
	s.registry.MustRegister(s.calls, s.latency)
	return s
}

// Registry exposes the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tool", s.handleTool)
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, ToolSpec())
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   s.now().UTC().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("panic in /tool", "panic", rec, "stack", string(debug.Stack()))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req ToolRequest
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if dec.More() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
		return
	}

	start := s.now()
	resp := HandleToolCall(req)
	elapsed := s.now().Sub(start)

	tool := req.Tool
	if _, ok := toolSchemas[tool]; !ok {
		// Unbounded label values would grow the registry without limit.
		tool = "unknown"
	}
	status := "ok"
	if resp.Error != "" {
		status = "error"
		s.log.Warn("tool call failed", "tool", req.Tool, "error", resp.Error)
	} else {
		s.log.Debug("tool call", "tool", req.Tool, "elapsed", elapsed)
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		status = "error"
		s.log.Error("encode tool response", "tool", req.Tool, "error", err)
	}
	s.calls.WithLabelValues(tool, status).Inc()
	s.latency.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// writeJSON encodes v before touching the response so an encoding failure
// still yields a well-formed 500.
func writeJSON(w http.ResponseWriter, code int, v interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		msg, _ := json.Marshal(map[string]string{"error": "encode response: " + err.Error()})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(append(msg, '\n'))
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err := w.Write(buf.Bytes())
	return err
}
