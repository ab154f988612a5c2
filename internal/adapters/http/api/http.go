// Package api declares the HTTP routes of the scoring service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/types"
	"github.com/okian/wicket/pkg/logger"
)

const defaultMaxBoardLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StartInnings(ctx context.Context, key model.InningsKey) innings.Result
	EndInnings(ctx context.Context, key model.InningsKey) innings.Result
	AppendDelivery(ctx context.Context, key model.InningsKey, d model.Delivery) (model.Delivery, innings.Result)

	ListDeliveries(ctx context.Context, key model.InningsKey) ([]model.Delivery, error)
	Scoreboard(ctx context.Context, key model.InningsKey) (types.Scoreboard, error)
	Innings(ctx context.Context, key model.InningsKey) (types.InningsView, error)
	ListInnings(ctx context.Context) ([]model.InningsKey, error)
	LiveBoard(ctx context.Context, limit int) ([]repository.LiveEntry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	maxBoardLimit int
	logger        logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		maxBoardLimit: defaultMaxBoardLimit,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	const inningsPath = "/matches/{match}/innings/{innings}"

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /live", MetricsMiddleware(s.handleLive, "live"))
	mux.HandleFunc("GET /innings", MetricsMiddleware(s.handleListInnings, "innings_list"))

	mux.HandleFunc("POST "+inningsPath+"/start", MetricsMiddleware(s.handleStart, "innings_start"))
	mux.HandleFunc("POST "+inningsPath+"/end", MetricsMiddleware(s.handleEnd, "innings_end"))
	mux.HandleFunc("GET "+inningsPath, MetricsMiddleware(s.handleInnings, "innings_get"))
	mux.HandleFunc("POST "+inningsPath+"/deliveries", MetricsMiddleware(s.handleAppend, "deliveries_append"))
	mux.HandleFunc("GET "+inningsPath+"/deliveries", MetricsMiddleware(s.handleListDeliveries, "deliveries_list"))
	mux.HandleFunc("GET "+inningsPath+"/scoreboard", MetricsMiddleware(s.handleScoreboard, "scoreboard"))
}

// errorResponse shares its shape with innings.Result so that clients can
// read every failure the same way.
type errorResponse struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Status: innings.ResultError, Code: code, Reason: msg})
}

// writeFailure maps err onto a status code and error body.
func (s *Server) writeFailure(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrValidation), errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		s.logger.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// resultStatus maps a lifecycle result onto an HTTP status code.
func resultStatus(res innings.Result) int {
	if res.OK() {
		return http.StatusOK
	}
	switch res.Code {
	case "invalid_transition", "innings_not_active":
		return http.StatusConflict
	case "validation_error":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// inningsKey reads {match} and {innings} from the request path.
func inningsKey(r *http.Request) (model.InningsKey, error) {
	match := strings.TrimSpace(r.PathValue("match"))
	raw := r.PathValue("innings")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return model.InningsKey{}, fmt.Errorf("%w: innings must be a number, got %q", ErrBadRequest, raw)
	}
	key := model.InningsKey{MatchID: match, InningsNo: n}
	if err := key.Validate(); err != nil {
		return model.InningsKey{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return key, nil
}
