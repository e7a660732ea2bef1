package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ledgerstats/internal/core"
	"ledgerstats/internal/dashboard"
	"ledgerstats/internal/log"
)

const (
	defaultLoadsLimit = 20
	maxLoadsLimit     = 200
)

// writeError maps domain validation errors to 400 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidFilter),
		errors.Is(err, core.ErrInvalidUnit),
		errors.Is(err, core.ErrInvalidPivotUnit),
		errors.Is(err, core.ErrUnknownField):
		BadRequestError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		InternalServerError("Internal server error").Write(w)
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady reports ready once the dashboard has data and the optional
// store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ready := true
	checks := make(map[string]string)

	if s.dash.Ready() {
		checks["dashboard"] = "ok"
	} else {
		checks["dashboard"] = "not loaded"
		ready = false
	}

	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			ready = false
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "not_configured"
	}

	body := map[string]any{"status": "ready", "checks": checks}
	if !ready {
		body["status"] = "not_ready"
		NewJSONResponse().Status(http.StatusServiceUnavailable).Data(body).Fail("not ready").Write(w)
		return
	}
	writeData(w, body)
}

// handleMetrics writes request, limiter and dashboard counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	status := s.dash.Status()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_requests_failed_total Requests answered with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_requests_failed_total counter\n")
	fmt.Fprintf(w, "http_requests_failed_total %d\n\n", traceMetrics.FailedRequests)

	fmt.Fprintf(w, "# HELP dashboard_loads_total Dashboard loads started\n")
	fmt.Fprintf(w, "# TYPE dashboard_loads_total counter\n")
	fmt.Fprintf(w, "dashboard_loads_total %d\n\n", status.Generation)

	fmt.Fprintf(w, "# HELP dashboard_records Records currently loaded\n")
	fmt.Fprintf(w, "# TYPE dashboard_records gauge\n")
	fmt.Fprintf(w, "dashboard_records{set=\"all\"} %d\n", status.Records)
	fmt.Fprintf(w, "dashboard_records{set=\"table\"} %d\n", status.ForTable)
	fmt.Fprintf(w, "dashboard_records{set=\"charts\"} %d\n\n", status.ForCharts)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dash.Status())
}

// handleLoads lists recent loads, newest first. Without a history store the
// list is empty.
func (s *Server) handleLoads(w http.ResponseWriter, r *http.Request) {
	limit := defaultLoadsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			BadRequestError("limit must be a positive integer").Write(w)
			return
		}
		limit = min(n, maxLoadsLimit)
	}

	if s.history == nil {
		writeData(w, []core.LoadEvent{})
		return
	}
	loads, err := s.history.RecentLoads(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if loads == nil {
		loads = []core.LoadEvent{}
	}
	writeData(w, loads)
}

func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dash.Notice())
}

func (s *Server) handleClearNotice(w http.ResponseWriter, r *http.Request) {
	s.dash.ClearNotice()
	writeData(w, nil)
}

// handleReload runs a load with the request's query as backend parameters.
// The load outlives a disconnecting client but not the reload timeout.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.reloadTimeout)
	defer cancel()

	logger := log.FromContext(r.Context())
	err := s.dash.Load(ctx, r.URL.Query())
	switch {
	case err == nil:
		writeData(w, s.dash.Status())
	case errors.Is(err, dashboard.ErrStaleLoad):
		ErrorResponse(http.StatusConflict, "Reload superseded by a newer reload").Write(w)
	default:
		logger.WarnContext(r.Context(), "Reload failed",
			log.FieldOperation, log.OpReload,
			log.FieldError, err)
		msg := dashboard.DefaultLoadFailedMessage
		if n := s.dash.Notice(); n != nil {
			msg = n.Message
		}
		ErrorResponse(http.StatusBadGateway, msg).Write(w)
	}
}
