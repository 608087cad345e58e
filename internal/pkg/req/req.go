/*
Package req binds HTTP request bodies into handler inputs.

JSON bodies are decoded strictly; URL-encoded forms are size-limited before parsing. Both
report failures as *errs.CustomError so handlers can answer with resp.RespondError.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"roomrelay/internal/pkg/errs"
)

// MaxBodySize caps request bodies accepted by Bind.
const MaxBodySize int64 = 16 << 10 // 16 KB

// IsForm reports whether the request carries a URL-encoded form body.
func IsForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

// BindJSON decodes the JSON request body into dst, rejecting unknown fields and trailing data.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// ParseForm parses a URL-encoded body after applying MaxBodySize.
func ParseForm(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
