/*
Package handler provides the HTTP handler function for WebSocket connection upgrading.

HandleWebSocket resolves the room and the caller's identity before upgrading, so a rejected
connection never creates a participant.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"roomrelay/internal/app/chat"
	"roomrelay/internal/pkg/auth/jwt"
	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/limiter"
	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc serving the real-time channel of one room.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := chi.URLParam(r, "token")

		room := deps.Manager.GetRoom(token)
		if room == nil {
			logx.Info("WebSocket connection rejected: Room not found.", "room_token", token)
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			logx.Info("WebSocket connection rejected: Identity missing.", "room_token", token)
			resp.RespondError(w, r, errs.NewError(errs.ErrIdentityMissing))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("WebSocket connection established", "room_token", token, "username", identity.Username)

		chat.NewClient(deps.Manager, room, conn, identity.Username).Serve()
	}
}
