package handler

import (
	"net/http"

	"roomrelay/internal/pkg/auth/jwt"
	"roomrelay/internal/pkg/resp"
)

// HandleCurrentIdentity returns the username carried by the identity cookie, or "".
func HandleCurrentIdentity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := ""
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			username = payload.Username
		}

		resp.RespondSuccess(w, r, map[string]string{"username": username})
	}
}
