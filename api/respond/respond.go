// Package respond holds the JSON helpers shared by the HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kilianp07/omnidispatch/core/dispatch"
	"github.com/kilianp07/omnidispatch/core/model"
)

// maxBody bounds decoded request bodies.
const maxBody = 1 << 20

// ErrBadRequest marks a request that could not be decoded or validated.
var ErrBadRequest = errors.New("bad request")

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps err to a status code and writes {"success":false,"error":...}.
func Error(w http.ResponseWriter, err error) {
	JSON(w, Status(err), map[string]any{"success": false, "error": err.Error()})
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, model.ErrUnknownResponder):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, dispatch.ErrEmptyTranscript):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON body into v. An empty body leaves v untouched when
// optional is set.
func Decode(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
