package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/digest"
	"github.com/dukerupert/chorechart/internal/middleware"
	"github.com/dukerupert/chorechart/internal/websocket"
)

// Broadcaster publishes change notifications. *websocket.Hub implements it.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Unclassified errors are
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		validation *chore.ValidationError
		notFound   *chore.NotFoundError
		noPrior    *chore.NoPriorStateError
		transport  *digest.TransportError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFound.Error()})
	case errors.As(err, &noPrior):
		writeJSON(w, http.StatusConflict, map[string]string{"error": noPrior.Error()})
	case errors.As(err, &transport):
		logger.Error("digest delivery failed", "error", err, "request_id", middleware.RequestIDFrom(r.Context()))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "digest delivery failed"})
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err,
			"request_id", middleware.RequestIDFrom(r.Context()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// looseString accepts a JSON string or number, so clients may send
// "frequency": 7 or "frequency": "7".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = looseString(n.String())
	return nil
}

func (s *looseString) ptr() *string {
	if s == nil {
		return nil
	}
	str := string(*s)
	return &str
}
