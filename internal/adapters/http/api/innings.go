package api

import (
	"context"
	"net/http"

	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
)

// handleStart handles POST /matches/{match}/innings/{innings}/start.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "api.start_innings", s.deps.StartInnings)
}

// handleEnd handles POST /matches/{match}/innings/{innings}/end.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "api.end_innings", s.deps.EndInnings)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, op string,
	apply func(ctx context.Context, key model.InningsKey) innings.Result,
) {
	key, err := inningsKey(r)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	res := apply(r.Context(), key)
	writeJSON(w, resultStatus(res), res)
}

// handleInnings handles GET /matches/{match}/innings/{innings}.
func (s *Server) handleInnings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_innings"
	key, err := inningsKey(r)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	v, err := s.deps.Innings(r.Context(), key)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleListInnings handles GET /innings.
func (s *Server) handleListInnings(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_innings"
	keys, err := s.deps.ListInnings(r.Context())
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	if keys == nil {
		keys = []model.InningsKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}
