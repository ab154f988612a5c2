package api

import "net/http"

// handleScoreboard handles GET /matches/{match}/innings/{innings}/scoreboard.
// The scoreboard is aggregated from the log on every request.
func (s *Server) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scoreboard"
	key, err := inningsKey(r)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	board, err := s.deps.Scoreboard(r.Context(), key)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
