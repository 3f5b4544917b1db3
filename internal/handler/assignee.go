package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/websocket"
)

type AssigneeHandler struct {
	svc    *chore.Service
	hub    Broadcaster
	logger *slog.Logger
}

func NewAssigneeHandler(svc *chore.Service, hub Broadcaster, logger *slog.Logger) *AssigneeHandler {
	return &AssigneeHandler{svc: svc, hub: hub, logger: logger}
}

func (h *AssigneeHandler) List(w http.ResponseWriter, r *http.Request) {
	assignees, err := h.svc.Assignees()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if assignees == nil {
		assignees = []model.Assignee{}
	}
	writeJSON(w, http.StatusOK, assignees)
}

func (h *AssigneeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	a, err := h.svc.AddAssignee(req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("assignee", "created", a.ID, a))
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AssigneeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.svc.RemoveAssignee(id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("assignee", "deleted", id, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}

type assigneeChoresResponse struct {
	Assignee model.Assignee  `json:"assignee"`
	Chores   []choreResponse `json:"chores"`
}

// Chores lists one assignee's chores by due date, keyed by name.
func (h *AssigneeHandler) Chores(w http.ResponseWriter, r *http.Request) {
	a, views, err := h.svc.ListForAssignee(r.PathValue("name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, assigneeChoresResponse{Assignee: *a, Chores: presentChores(views)})
}
