package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/database"
	"github.com/fulldump/tickdb/service"
	"github.com/fulldump/tickdb/tickstore"
)

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status == database.StatusOpening {
				box.SetError(ctx, fmt.Errorf("%w: opening", ErrUnavailable))
				return
			}
			if status == database.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: closing", ErrUnavailable))
				return
			}
			next(ctx)
		}
	}
}

var ErrUnavailable = errors.New("temporary unavailable")

// errorStatus maps every known error to its status code and a description for
// the client.
var errorStatus = []struct {
	target      error
	status      int
	description string
}{
	{ErrUnauthorized, http.StatusUnauthorized, "user is not authenticated"},
	{ErrUnavailable, http.StatusServiceUnavailable, "database is not ready, retry later"},
	{database.ErrNotOperating, http.StatusServiceUnavailable, "database is not ready, retry later"},
	{service.ErrorDatasetNotFound, http.StatusNotFound, "dataset does not exist"},
	{container.ErrNotFound, http.StatusNotFound, "dataset does not exist"},
	{tickstore.ErrEmpty, http.StatusNotFound, "dataset has no rows"},
	{tickstore.ErrDuplicateTicks, http.StatusConflict, "rows with the same ticks are already stored"},
	{tickstore.ErrOutOfRange, http.StatusBadRequest, "index out of range"},
	{tickstore.ErrInvalidRange, http.StatusBadRequest, "range start is after its end"},
	{tickstore.ErrUnsortedBatch, http.StatusBadRequest, "rows must be strictly ascending by ticks, use spread"},
	{service.ErrorInvalidRow, http.StatusBadRequest, "row does not match the dataset kind"},
	{service.ErrorBadMode, http.StatusBadRequest, "unknown mode"},
	{container.ErrInvalidAddress, http.StatusBadRequest, "invalid dataset address"},
	{database.ErrKindMismatch, http.StatusBadRequest, "invalid dataset address"},
	{tickstore.ErrReadOnly, http.StatusForbidden, "dataset is read only"},
	{container.ErrReadOnly, http.StatusForbidden, "dataset is read only"},
	{container.ErrCorrupted, http.StatusInternalServerError, "dataset is corrupted"},
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)
		w.Header().Set("Content-Type", "application/json")

		writeError := func(status int, description string) {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"message":     err.Error(),
					"description": description,
				},
			})
		}

		for _, e := range errorStatus {
			if errors.Is(err, e.target) {
				writeError(e.status, e.description)
				return
			}
		}

		if err == box.ErrResourceNotFound {
			writeError(http.StatusNotFound, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String()))
			return
		}

		if err == box.ErrMethodNotAllowed {
			writeError(http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method))
			return
		}

		if isMalformedJSON(err) {
			writeError(http.StatusBadRequest, "Malformed JSON")
			return
		}

		writeError(http.StatusInternalServerError, "Unexpected error")
	}
}

func isMalformedJSON(err error) bool {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var syntacticError *jsontext.SyntacticError
	var semanticError *jsonv2.SemanticError
	return errors.As(err, &syntaxError) ||
		errors.As(err, &typeError) ||
		errors.As(err, &syntacticError) ||
		errors.As(err, &semanticError) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
