/*
Package errs provides custom error types and application-level error code constants.

These error codes identify relay failures both inside the server and in responses
returned to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room Errors
const (
	// ErrRoomTokenExhausted indicates that no free room token could be allocated.
	ErrRoomTokenExhausted = 2102

	// ErrRoomNotFound indicates that the referenced room token is not live.
	ErrRoomNotFound = 2103
)

// 3xxx: Identity Errors
const (
	// ErrIdentityMissing indicates that a connection attempt carried no resolvable username.
	ErrIdentityMissing = 3001

	// ErrInvalidUsername indicates that the supplied display name is empty or malformed.
	ErrInvalidUsername = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
