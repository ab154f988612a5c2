package api

import "github.com/okian/wicket/pkg/logger"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBoardLimit caps GET /live?limit.
func WithMaxBoardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBoardLimit = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
