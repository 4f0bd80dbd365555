package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/trogers1052/strategy-forge/internal/engine"
	"github.com/trogers1052/strategy-forge/internal/models"
	"github.com/trogers1052/strategy-forge/internal/rules"
)

const maxBodyBytes = 1 << 20

// Service is the strategy engine surface the handlers call
type Service interface {
	RunBacktest(ctx context.Context, req models.BacktestRequest) (*models.BacktestResponse, error)
	CheckSignals(ctx context.Context, req models.SignalCheckRequest) (*models.SignalCheckResponse, error)
	TopStrategies(ctx context.Context, limit int, orderBy string) []models.TopStrategy
	GenerateStrategy(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error)
	SignalHistory(ctx context.Context, symbol string, limit int) ([]*models.SignalHistory, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// GenerateStrategy handles POST /strategies/generate
func (h *Handler) GenerateStrategy(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.GenerateStrategy(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// RunBacktest handles POST /backtest/run
func (h *Handler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	var req models.BacktestRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.RunBacktest(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetTopStrategies handles GET /strategies/top?limit&order_by
func (h *Handler) GetTopStrategies(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	limit, orderBy := models.NormalizeTopQuery(limit, r.URL.Query().Get("order_by"))

	top := h.service.TopStrategies(r.Context(), limit, orderBy)
	respondJSON(w, http.StatusOK, models.TopStrategiesResponse{TopStrategies: top})
}

// CheckSignals handles POST /signals/check
func (h *Handler) CheckSignals(w http.ResponseWriter, r *http.Request) {
	var req models.SignalCheckRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.CheckSignals(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetSignalHistory handles GET /signals/history/{symbol}
func (h *Handler) GetSignalHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondDetail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := h.service.SignalHistory(r.Context(), symbol, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if history == nil {
		history = []*models.SignalHistory{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "history": history})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	var (
		validation  *models.ValidationError
		parse       *rules.ParseError
		unknown     *rules.UnknownIndicatorError
		unavailable *engine.DataUnavailableError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &parse),
		errors.As(err, &unknown), errors.As(err, &unavailable):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	switch status {
	case http.StatusGatewayTimeout:
		detail = "request timed out"
	case http.StatusInternalServerError:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		detail = "internal server error"
	}
	respondDetail(w, status, detail)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, models.ErrorResponse{Detail: detail})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
