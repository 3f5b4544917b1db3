package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/websocket"
)

type ChoreHandler struct {
	svc    *chore.Service
	hub    Broadcaster
	logger *slog.Logger
}

func NewChoreHandler(svc *chore.Service, hub Broadcaster, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{svc: svc, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(action string, v *chore.View, id int64) {
	if h.hub == nil {
		return
	}
	var data any
	if v != nil {
		data = presentChore(*v)
	}
	h.hub.Broadcast(websocket.NewMessage("chore", action, id, data))
}

type createChoreRequest struct {
	Title         string      `json:"title"`
	OwnerID       *int64      `json:"owner_id"`
	Category      string      `json:"category"`
	Frequency     looseString `json:"frequency"`
	LastCompleted string      `json:"last_completed"`
	IsPriority    bool        `json:"is_priority"`
	Notes         string      `json:"notes"`
}

type editChoreRequest struct {
	Title         *string      `json:"title"`
	OwnerID       *int64       `json:"owner_id"`
	Category      *string      `json:"category"`
	Frequency     *looseString `json:"frequency"`
	LastCompleted *string      `json:"last_completed"`
	IsPriority    *bool        `json:"is_priority"`
	Notes         *string      `json:"notes"`
}

// List returns every chore in listing order, filtered by ?q= when present.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Search(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presentChores(views))
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	v, err := h.svc.Get(id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presentChore(*v))
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	v, err := h.svc.Create(chore.CreateInput{
		Title:         req.Title,
		OwnerID:       req.OwnerID,
		Category:      req.Category,
		Frequency:     string(req.Frequency),
		LastCompleted: req.LastCompleted,
		IsPriority:    req.IsPriority,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast("created", v, v.ID)
	writeJSON(w, http.StatusCreated, presentChore(*v))
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req editChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	v, err := h.svc.Edit(id, chore.EditInput{
		Title:         req.Title,
		OwnerID:       req.OwnerID,
		Category:      req.Category,
		Frequency:     req.Frequency.ptr(),
		LastCompleted: req.LastCompleted,
		IsPriority:    req.IsPriority,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast("updated", v, id)
	writeJSON(w, http.StatusOK, presentChore(*v))
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.svc.Delete(id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast("deleted", nil, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "completed", h.svc.Complete)
}

func (h *ChoreHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "undone", h.svc.Undo)
}

func (h *ChoreHandler) TogglePriority(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "priority_toggled", h.svc.TogglePriority)
}

func (h *ChoreHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(int64) (*chore.View, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	v, err := fn(id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(action, v, id)
	writeJSON(w, http.StatusOK, presentChore(*v))
}

// Priorities returns flagged chores by due date.
func (h *ChoreHandler) Priorities(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListPriorities()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presentChores(views))
}
