// Package toy contains all HTTP handlers related to the Toy resource.
//
// HANDLER PATTERN USED HERE: CLOSURE / FACTORY
// ────────────────────────────────────────────
// Each exported function accepts its dependencies (the store and the
// reply mode) once, at route registration, and returns the
// func(http.ResponseWriter, *http.Request) the router calls on every
// request:
//
//	r.Post("/toys", toy.New(store, toy.ReplyRecord))
//
// Handlers are stateless. Every outcome is turned into a response here;
// no error escapes to the server.
package toy

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/toys-api/internal/storage"
	"github.com/aanand-mishra/toys-api/internal/types"
	"github.com/aanand-mishra/toys-api/internal/utils/response"
)

// Reply selects the body sent back by POST and PUT.
//
// The two variants of the service have always differed here and API
// consumers depend on it, so both shapes are kept:
//
//	ReplyRecord → the full stored toy        (in-memory variant)
//	ReplyID     → { "id": "<id>" } only      (persistent variants)
type Reply int

const (
	ReplyRecord Reply = iota
	ReplyID
)

const msgNotFound = "Not found"

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /toys
// Creates a new toy from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Ball", "age": 3, "price": 9.99 }
//
// Success response (201 Created):
//
//	{ "id": "1", "name": "Ball", "descr": "Not Available", "age": 3,
//	  "price": 9.99, "features": [] }              (ReplyRecord)
//	{ "id": "1" }                                  (ReplyID)
//
// Error responses:
//
//	415 Unsupported Media Type: Content-Type is not application/json
//	400 Bad Request:            malformed JSON or a required field missing
//	500 Internal:               storage failure
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage, reply Reply) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a toy")

		toy, err := types.Normalize(r.Header.Get("Content-Type"), r.Body, types.ModeCreate, "")
		if err != nil {
			writeError(w, err)
			return
		}

		id, err := store.Insert(r.Context(), toy)
		if err != nil {
			slog.Error("error creating toy", slog.String("error", err.Error()))
			writeError(w, err)
			return
		}
		toy.ID = id

		slog.Info("toy created", slog.String("id", id))

		if reply == ReplyID {
			response.WriteJSON(w, http.StatusCreated, response.ID{ID: id})
			return
		}
		response.WriteJSON(w, http.StatusCreated, toy)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /toys
// Returns a JSON array of toys, optionally filtered by the query string.
//
// Query strings are conjunctions of equalities:
//
//	GET /toys?name=Ball&age=3
//
// Only the first value of a repeated key is used. Returns [] (not null)
// when nothing matches.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := make(types.Filter)
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				filter[key] = values[0]
			}
		}

		slog.Info("getting toys", slog.Any("filter", filter))

		toys, err := store.List(r.Context(), filter)
		if err != nil {
			slog.Error("error getting toys", slog.String("error", err.Error()))
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, toys)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /toys/{id}
//
// Success response (200 OK): the toy.
// Error responses:
//
//	404 Not Found: no toy with that id, or an id the backend cannot parse
//	500 Internal:  storage failure
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("getting a toy", slog.String("id", id))

		toy, err := store.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, toy)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /toys/{id}
// Replaces ALL fields of an existing toy. Optional fields left out of the
// body are reset to their defaults; nothing is merged.
//
// The body is checked before the id is looked up, so a malformed request
// for an unknown id answers 400/415, not 404.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage, reply Reply) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("updating a toy", slog.String("id", id))

		toy, err := types.Normalize(r.Header.Get("Content-Type"), r.Body, types.ModeReplace, id)
		if err != nil {
			writeError(w, err)
			return
		}

		updated, err := store.ReplaceByID(r.Context(), id, toy)
		if err != nil {
			writeError(w, err)
			return
		}

		slog.Info("toy updated", slog.String("id", id))

		if reply == ReplyID {
			response.WriteJSON(w, http.StatusOK, response.ID{ID: updated.ID})
			return
		}
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /toys/{id}
// Success response: 204 No Content, empty body.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("deleting a toy", slog.String("id", id))

		if err := store.DeleteByID(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}

		slog.Info("toy deleted", slog.String("id", id))
		response.NoContent(w)
	}
}

// writeError maps an error to its status code and body:
//
//	ValidationError(media type) → 415
//	ValidationError(other)      → 400
//	ErrNotFound / ErrInvalidID  → 404   (ids the backend cannot parse are
//	                                      reported like unknown ones)
//	anything else               → 500 with the message echoed
func writeError(w http.ResponseWriter, err error) {
	var vErr *types.ValidationError

	switch {
	case errors.Is(err, types.ErrUnsupportedMediaType):
		response.WriteJSON(w, http.StatusUnsupportedMediaType, response.GeneralError(err.Error()))
	case errors.As(err, &vErr):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(vErr.Error()))
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidID):
		slog.Info("toy not found", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(msgNotFound))
	default:
		slog.Error("unexpected error", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.ServerError(err))
	}
}
