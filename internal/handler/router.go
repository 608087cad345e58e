/*
Package handler provides the HTTP handlers and routing setup for the relay.

This file defines the main Router, applying logging, CORS and IP-based rate limiting before
delegating requests to the API and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"roomrelay/internal/pkg/auth/jwt"
	"roomrelay/internal/pkg/limiter"
	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/pkg/resp"
)

const (
	CreateRate  = 0.05
	CreateBurst = 2
	JoinRate    = 0.2
	JoinBurst   = 5
)

// Router builds the chi routing table for the relay. stop releases the rate limiters'
// background sweeps and must be called once the server has shut down.
func Router(deps *AppDeps) (handler http.Handler, stop func()) {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	joinLimiter := limiter.NewIPRateLimiter(rate.Limit(JoinRate), JoinBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	identity := jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":  "ok",
			"service": "Room Relay",
			"rooms":   deps.Manager.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(identity)

		api.With(createLimiter.Middleware).Post("/create", HandleCreateRoom(deps))
		api.Post("/join", HandleJoinRoom(deps, createLimiter))
		api.Get("/me", HandleCurrentIdentity())
	})

	r.With(identity).Get("/ws/{token}", HandleWebSocket(wsUpgrader, joinLimiter, deps))
	r.Get("/{token}", HandleRoomStatus(deps))

	return r, func() {
		createLimiter.Stop()
		joinLimiter.Stop()
	}
}
