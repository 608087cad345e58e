/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template (user message and HTTP status).
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// A zero Status is rendered as 200 OK with the code in the body.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process submitted form.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room Errors
	ErrRoomTokenExhausted: {Code: ErrRoomTokenExhausted, Message: "No chat room could be allocated. Please try again.", Status: http.StatusServiceUnavailable},
	ErrRoomNotFound:       {Code: ErrRoomNotFound, Message: "Session does not exist.", Status: http.StatusNotFound},

	// 3xxx: Identity Errors
	ErrIdentityMissing: {Code: ErrIdentityMissing, Message: "Please choose a username first.", Status: http.StatusUnauthorized},
	ErrInvalidUsername: {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
