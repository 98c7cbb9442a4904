package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 16 << 10

var ErrBodyTooLarge = errors.New("request body too large")

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes a unified error body and logs 5xx responses with the request logger.
func Error(ctx context.Context, w http.ResponseWriter, status int, msg string, details ...string) {
	if status >= http.StatusInternalServerError {
		L(ctx).ErrorContext(ctx, "request failed", slog.Int("status", status), slog.String("err", msg))
	}
	JSON(w, status, ErrorBody{Error: msg, Details: details})
}

// DecodeJSON reads a single JSON value from r into dst, reading at most
// MaxBodyBytes. A larger body yields ErrBodyTooLarge.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return err
	}
	return nil
}
