// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error bodies come in exactly two shapes:
//
//	{ "error": "Not found" }            the client did something wrong
//	{ "server error": "<message>" }     something failed on our side
package response

import (
	"encoding/json"
	"net/http"
)

// Response is the body of every client-side error (4xx).
type Response struct {
	Error string `json:"error"`
}

// ServerErrorResponse is the body of every unexpected failure (5xx).
// The key contains a space on purpose: existing clients read it as is.
type ServerErrorResponse struct {
	ServerError string `json:"server error"`
}

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// NoContent writes a bodiless response, e.g. 204 after a delete.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// GeneralError wraps a client-facing message into the standard shape.
//
// Example usage:
//
//	response.WriteJSON(w, http.StatusNotFound,
//	    response.GeneralError("Not found"))
func GeneralError(msg string) Response {
	return Response{Error: msg}
}

// ServerError echoes err's message back to the caller.
func ServerError(err error) ServerErrorResponse {
	return ServerErrorResponse{ServerError: err.Error()}
}

// ID is the body returned by the persistent variants after POST and PUT.
type ID struct {
	ID string `json:"id"`
}
