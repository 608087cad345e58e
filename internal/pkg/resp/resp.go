/*
Package resp writes the relay's standard JSON responses.

Every HTTP answer uses the same envelope: a business code (0 on success), a message and an
optional data payload.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
)

// JSONResponse is the response envelope returned to HTTP clients.
type JSONResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RespondJSON sets the JSON headers, writes httpStatus and the encoded payload.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus, "path", r.URL.Path)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)

	if _, err := w.Write(body); err != nil {
		logx.Warn("Failed to write JSON response", "path", r.URL.Path, "error", err.Error())
	}
}

// RespondSuccess sends an HTTP 200 response carrying data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RespondError sends the status, code and message of customErr.
// A nil error is reported as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
