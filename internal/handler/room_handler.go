/*
Package handler provides HTTP handler functions for room creation, joining and status checks.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomrelay/internal/app/user"
	"roomrelay/internal/pkg/auth/jwt"
	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/limiter"
	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/pkg/randx"
	"roomrelay/internal/pkg/req"
	"roomrelay/internal/pkg/resp"
)

// SessionInput is the body of the create and join endpoints.
type SessionInput struct {
	// Username is the display name to register.
	Username string `json:"username"`
	// Token is the room to join; empty means "create a new room".
	Token string `json:"token,omitempty"`
}

// bindSessionInput accepts either a JSON body or a URL-encoded form with a "name" or
// "username" field.
func bindSessionInput(w http.ResponseWriter, r *http.Request) (SessionInput, *errs.CustomError) {
	var input SessionInput

	if req.IsForm(r) {
		if customErr := req.ParseForm(w, r); customErr != nil {
			return input, customErr
		}
		input.Username = r.PostFormValue("username")
		if input.Username == "" {
			input.Username = r.PostFormValue("name")
		}
		input.Token = r.PostFormValue("token")
		return input, nil
	}

	customErr := req.BindJSON(w, r, &input)
	return input, customErr
}

// HandleCreateRoom creates a room and registers the caller's username for it.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, customErr := bindSessionInput(w, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		username, ok := user.NormalizeUsername(input.Username)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		createRoomFor(w, r, deps, username)
	}
}

// createRoomFor allocates a room, issues the identity cookie and answers with the token.
func createRoomFor(w http.ResponseWriter, r *http.Request, deps *AppDeps, username string) {
	room, createErr := deps.Manager.CreateRoom()
	if createErr != nil {
		resp.RespondError(w, r, createErr)
		return
	}

	if err := issueIdentity(w, deps, username, room.Token); err != nil {
		logx.Error(err, "Failed to issue identity for new room", "room_token", room.Token)
		deps.Manager.RemoveRoom(room.Token)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	resp.RespondSuccess(w, r, map[string]any{
		"token":    room.Token,
		"username": username,
	})
}

// HandleJoinRoom registers the caller's username for an existing room. Membership itself is
// only created when the WebSocket connects. Without a token it behaves like HandleCreateRoom
// and draws from the same createLimiter.
func HandleJoinRoom(deps *AppDeps, createLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, customErr := bindSessionInput(w, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		username, ok := user.NormalizeUsername(input.Username)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		if input.Token == "" {
			if !createLimiter.Allow(r) {
				logx.Warn("Room creation via join rejected: rate limit exceeded.", "ip", limiter.ClientIP(r))
				resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
				return
			}
			createRoomFor(w, r, deps, username)
			return
		}

		if !randx.IsValidRoomCode(input.Token) || deps.Manager.GetRoom(input.Token) == nil {
			logx.Info("Join rejected: room not found.", "room_token", input.Token)
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		if err := issueIdentity(w, deps, username, input.Token); err != nil {
			logx.Error(err, "Failed to issue identity for join", "room_token", input.Token)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token":    input.Token,
			"username": username,
		})
	}
}

// HandleRoomStatus reports whether a room exists. Unknown tokens answer 404.
func HandleRoomStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		room := deps.Manager.GetRoom(token)
		if room == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token":        room.Token,
			"participants": room.Size(),
		})
	}
}

func issueIdentity(w http.ResponseWriter, deps *AppDeps, username, roomToken string) error {
	signed, err := jwt.GenerateToken(&jwt.Payload{Username: username}, deps.Config.JWTSecret, jwt.IdentityExpiration)
	if err != nil {
		return err
	}

	jwt.SetIdentityCookie(w, signed, deps.Config.CookieSecure)
	logx.Debug("Identity cookie issued", "room_token", roomToken)
	return nil
}
