package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type FilterHandler struct {
	Filters *usecase.SavedFilterService
}

func NewFilterHandler(filters *usecase.SavedFilterService) *FilterHandler {
	return &FilterHandler{Filters: filters}
}

func (h *FilterHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filters, err := h.Filters.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

func (h *FilterHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in usecase.SavedFilterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	created, err := h.Filters.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *FilterHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in usecase.SavedFilterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	updated, err := h.Filters.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *FilterHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Filters.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FilterHandler) HandleSetDefault(w http.ResponseWriter, r *http.Request) {
	if err := h.Filters.SetDefault(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FilterHandler) HandleClearDefault(w http.ResponseWriter, r *http.Request) {
	if err := h.Filters.ClearDefault(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
