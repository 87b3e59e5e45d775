package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"oof-moments/internal/analyzer"
	"oof-moments/internal/gate"
	"oof-moments/internal/logger"
	"oof-moments/internal/storage"
)

// server holds the HTTP handler dependencies.
type server struct {
	analyzer        *analyzer.Analyzer
	resultStore     storage.AnalysisResultStore
	momentStore     storage.MomentStore
	analysisTimeout time.Duration
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze/{wallet}", s.handleAnalyze)
	mux.HandleFunc("GET /results/{wallet}", s.handleResults)
	mux.HandleFunc("GET /moments/{wallet}", s.handleMoments)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// handleAnalyze runs a full analysis for the wallet. Responds 429 with the
// retry time when the wallet is cooling down.
func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	wallet := r.PathValue("wallet")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet address is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.analysisTimeout)
	defer cancel()

	result, err := s.analyzer.AnalyzeWallet(ctx, wallet)
	if err != nil {
		var rateLimited *gate.RateLimitedError
		if errors.As(err, &rateLimited) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error":           "rate limited",
				"nextAllowedTime": rateLimited.NextAllowedTime.UTC().Format(time.RFC3339),
			})
			return
		}
		logger.Errorw("analysis failed", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleResults returns the wallet's most recent analysis result.
func (s *server) handleResults(w http.ResponseWriter, r *http.Request) {
	wallet := r.PathValue("wallet")

	result, err := s.resultStore.GetLatestByWallet(r.Context(), wallet)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no results for wallet")
			return
		}
		logger.Errorw("result lookup failed", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleMoments returns every moment ever selected for the wallet.
func (s *server) handleMoments(w http.ResponseWriter, r *http.Request) {
	wallet := r.PathValue("wallet")

	moments, err := s.momentStore.GetByWallet(r.Context(), wallet)
	if err != nil {
		logger.Errorw("moment lookup failed", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, moments)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
