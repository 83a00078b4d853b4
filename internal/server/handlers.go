package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/modules/analysis"
)

const requestDateLayout = "2006-01-02"

type optimizeRequest struct {
	Tickers      []string `json:"tickers"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	RiskFreeRate *float64 `json:"risk_free_rate,omitempty"`
}

type positionPayload struct {
	Price  float64 `json:"price"`
	Shares float64 `json:"shares"`
}

type analyzeRequest struct {
	Holdings map[string]positionPayload `json:"holdings"`
	Seed     *uint64                    `json:"seed,omitempty"`
}

type recommendRequest struct {
	Holdings map[string]positionPayload `json:"holdings"`
	Count    *int                       `json:"count,omitempty"`
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleOptimize runs the max-Sharpe optimizer over a requested date range.
// The optimizer is the fail-closed entry point: failures surface as HTTP
// errors instead of a degraded payload.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	start, err := time.Parse(requestDateLayout, req.Start)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid start date: "+req.Start)
		return
	}
	end, err := time.Parse(requestDateLayout, req.End)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid end date: "+req.End)
		return
	}

	riskFree := s.deps.Config.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFree = *req.RiskFreeRate
	}

	table, err := s.deps.Prices.DailyCloses(r.Context(), req.Tickers, start, end)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	result, err := s.deps.Optimizer.MaximizeSharpe(table, riskFree)
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleAnalyze runs the fail-open analysis: the response always carries the
// tagged result, with failures in its error field.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result := s.deps.Analysis.Analyze(r.Context(), analysisRequest(req))
	s.writeJSON(w, http.StatusOK, result)
}

// handleRecommend runs the fail-open diversification recommender.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	count := s.deps.Config.RecommendationTopN
	if req.Count != nil && *req.Count > 0 {
		count = *req.Count
	}

	result := s.deps.Recommender.Recommend(r.Context(), toPortfolio(req.Holdings), count)
	s.writeJSON(w, http.StatusOK, result)
}

// handleMarketCondition classifies the configured benchmark's regime over
// the standard lookback window.
func (s *Server) handleMarketCondition(w http.ResponseWriter, r *http.Request) {
	end := time.Now()
	start := end.AddDate(0, 0, -s.deps.Config.LookbackDays)

	table, err := s.deps.Prices.DailyCloses(r.Context(), []string{s.deps.Config.BenchmarkSymbol}, start, end)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	condition := s.deps.Market.Analyze(table.Column(s.deps.Config.BenchmarkSymbol))
	s.writeJSON(w, http.StatusOK, condition)
}

func toPortfolio(holdings map[string]positionPayload) domain.Portfolio {
	portfolio := make(domain.Portfolio, len(holdings))
	for ticker, p := range holdings {
		portfolio[ticker] = domain.Position{Ticker: ticker, Price: p.Price, Shares: p.Shares}
	}
	return portfolio
}

func analysisRequest(req analyzeRequest) analysis.Request {
	return analysis.Request{
		Portfolio: toPortfolio(req.Holdings),
		Seed:      req.Seed,
	}
}

// statusForError maps engine error kinds onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInputMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		// insufficient history, divergence, degenerate volatility
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
