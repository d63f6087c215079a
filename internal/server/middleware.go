package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type requestLog struct {
	Remote    string `json:"remote"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	UserAgent string `json:"user_agent"`
}

// logRequests writes one debug line per request. Matched routes are logged by pattern
// so the feed token in the path never reaches the log.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		userAgent := r.UserAgent()
		if userAgent == "" {
			userAgent = "-"
		}
		s.log.DebugObj("request", "http", requestLog{
			Remote:    r.RemoteAddr,
			Method:    r.Method,
			Path:      path,
			Status:    ww.Status(),
			UserAgent: userAgent,
		})
	})
}
