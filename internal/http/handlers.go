package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"finsight/internal/analysis"
	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/storage"
)

type reportResponse struct {
	Digest string           `json:"digest"`
	Cached bool             `json:"cached"`
	Report *analysis.Report `json:"report"`
}

type acceptedResponse struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
}

// handleAnalyzeReport runs the full pipeline over the posted transactions.
// With mode=async the batch is stored and queued for the worker instead;
// the returned batch ID doubles as the digest for the later report lookup.
func (s *Server) handleAnalyzeReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analysis.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, "transactions are required")
		return
	}

	ctx := r.Context()
	digest, err := req.Digest()
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Request digest failed", log.FieldError, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if r.URL.Query().Get("mode") == "async" {
		s.enqueueBatch(w, r, digest, req)
		return
	}

	if report, ok := s.reportCache.Get(digest); ok {
		log.FromContext(ctx).DebugContext(ctx, "Report cache hit", log.FieldDigest, digest)
		writeJSON(w, http.StatusOK, reportResponse{Digest: digest, Cached: true, Report: report})
		return
	}

	report, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Analysis failed",
			log.FieldDigest, digest,
			log.FieldError, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	s.reportCache.Set(digest, report)

	log.FromContext(ctx).InfoContext(ctx, "Report computed",
		log.FieldDigest, digest,
		log.FieldTransactions, len(req.Transactions),
		log.FieldMonths, len(report.Months))
	writeJSON(w, http.StatusOK, reportResponse{Digest: digest, Report: report})
}

func (s *Server) enqueueBatch(w http.ResponseWriter, r *http.Request, digest string, req analysis.Request) {
	ctx := r.Context()
	if s.store == nil || s.publisher == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "async processing not configured")
		return
	}

	if err := s.store.SaveBatch(ctx, digest, req); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Batch save failed",
			log.FieldBatchID, digest,
			log.FieldError, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "could not store batch")
		return
	}

	if err := s.publisher.PublishAnalysisJob(ctx, digest, 1); err != nil {
		// The batch is stored as pending, so the worker's backlog scan will
		// still pick it up even though the queue never saw it.
		log.FromContext(ctx).WarnContext(ctx, "Job publish failed, batch left for backlog scan",
			log.FieldBatchID, digest,
			log.FieldError, err.Error())
	}

	writeJSON(w, http.StatusAccepted, acceptedResponse{BatchID: digest, Status: "queued"})
}

// handleGetReport serves a report the worker stored earlier, addressed by
// request digest.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "report storage not configured")
		return
	}

	digest := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	if digest == "" || strings.Contains(digest, "/") {
		writeJSONError(w, http.StatusNotFound, "report not found")
		return
	}

	report, err := s.store.GetReport(r.Context(), digest)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "report not found")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report lookup failed",
			log.FieldDigest, digest,
			log.FieldError, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "report lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{Digest: digest, Report: report})
}

type varianceRequest struct {
	Actual   float64 `json:"actual"`
	Budgeted float64 `json:"budgeted"`
}

func (s *Server) handleVariance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req varianceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, analysis.Variance(req.Actual, req.Budgeted))
}

type forecastRequest struct {
	Values       []float64 `json:"values"`
	PeriodsAhead int       `json:"periods_ahead"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req forecastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PeriodsAhead < 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, "periods_ahead must not be negative")
		return
	}
	if req.PeriodsAhead == 0 {
		req.PeriodsAhead = analysis.DefaultForecastPeriods
	}

	writeJSON(w, http.StatusOK, analysis.Forecast(req.Values, req.PeriodsAhead))
}

type optimizeRequest struct {
	CurrentSpending map[core.Category]float64 `json:"current_spending"`
	Goals           core.Goals                `json:"goals"`
	MonthlyIncome   float64                   `json:"monthly_income"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req optimizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, analysis.OptimizeAllocation(req.CurrentSpending, req.Goals, req.MonthlyIncome))
}

type goalsRequest struct {
	CurrentSpending map[core.Category]float64 `json:"current_spending"`
	SavingsGoal     float64                   `json:"savings_goal"`
	TimelineMonths  int                       `json:"timeline_months"`
	MonthlyIncome   float64                   `json:"monthly_income"`
}

type goalsResponse struct {
	Adjustment core.GoalAdjustment  `json:"adjustment"`
	Timeline   core.SavingsTimeline `json:"timeline"`
}

// handleGoals answers both goal questions in one call: what reaching the
// goal would take, and how long it takes at the current surplus.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req goalsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TimelineMonths < 1 {
		writeJSONError(w, http.StatusUnprocessableEntity, "timeline_months must be at least 1")
		return
	}

	var totalSpending float64
	for _, amount := range req.CurrentSpending {
		totalSpending += amount
	}

	writeJSON(w, http.StatusOK, goalsResponse{
		Adjustment: analysis.GoalAdjustment(req.CurrentSpending, req.SavingsGoal, req.TimelineMonths),
		Timeline:   analysis.SavingsTimeline(req.SavingsGoal, req.MonthlyIncome, totalSpending),
	})
}

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

// handleReady performs a readiness check with dependency verification.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "not_configured"
	}

	checks["report_cache"] = s.reportCache.Stats()
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"limit_hits":     s.metrics.RateLimitHits(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}
