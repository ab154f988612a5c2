package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const defaultLiveLimit = 10

// handleLive handles GET /live?limit=N. Without a limit the ten most
// recently updated innings are returned, or fewer when the cap is lower.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_live"

	n := min(defaultLiveLimit, s.maxBoardLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be a positive integer, got %q", raw)))
			return
		}
		n = v
	}
	if n > s.maxBoardLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			WrapKind(op, ErrBadRequest, fmt.Errorf("limit must not exceed %d", s.maxBoardLimit)))
		return
	}

	entries, err := s.deps.LiveBoard(r.Context(), n)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
