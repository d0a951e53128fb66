package handlers

import (
	"net/http"

	"standings-backend/internal/auth"
	"standings-backend/internal/middleware"
)

// Router builds the middleware chain: logging -> CORS -> auth -> routes.
// Preflight requests are answered by CORS before auth runs.
func (h *Handler) Router(allowedOrigin string) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	authed := auth.Middleware(h.sessionSecret, h.sessions)(mux)
	return middleware.Logging(h.logger)(middleware.CORS(allowedOrigin)(authed))
}
