package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/digest"
)

// DigestService is the part of digest.Service the handler uses.
type DigestService interface {
	Build() (*digest.Digest, error)
	Send(ctx context.Context) (*digest.Digest, error)
}

type DigestHandler struct {
	svc    DigestService
	logger *slog.Logger
}

func NewDigestHandler(svc DigestService, logger *slog.Logger) *DigestHandler {
	return &DigestHandler{svc: svc, logger: logger}
}

// Preview renders today's digest as plain text without sending it.
func (h *DigestHandler) Preview(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Build()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(d.Subject + "\n\n" + d.Body))
}

func (h *DigestHandler) Send(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Send(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  d.Date.Format(chore.DateLayout),
		"count": d.Count,
		"sent":  d.Count > 0,
	})
}
