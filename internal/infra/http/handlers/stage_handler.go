package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type StageHandler struct {
	Stages *usecase.StageRegistry
}

func NewStageHandler(stages *usecase.StageRegistry) *StageHandler {
	return &StageHandler{Stages: stages}
}

type ReorderStagesRequest struct {
	IDs []string `json:"ids"`
}

func (h *StageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Stages.Stages())
}

func (h *StageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var stage entity.Stage
	if !decodeJSON(w, r, &stage) {
		return
	}
	if err := h.Stages.Add(r.Context(), stage); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Stages.Stages())
}

func (h *StageHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var stage entity.Stage
	if !decodeJSON(w, r, &stage) {
		return
	}
	if err := h.Stages.Update(r.Context(), chi.URLParam(r, "id"), stage); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Stages.Stages())
}

func (h *StageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Stages.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Stages.Stages())
}

func (h *StageHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderStagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Stages.Reorder(r.Context(), req.IDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Stages.Stages())
}
