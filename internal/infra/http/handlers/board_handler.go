package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type BoardHandler struct {
	Board  *usecase.Board
	Editor *usecase.LeadEditor
}

func NewBoardHandler(board *usecase.Board, editor *usecase.LeadEditor) *BoardHandler {
	return &BoardHandler{Board: board, Editor: editor}
}

type MoveResponse struct {
	Outcome string            `json:"outcome"`
	Board   usecase.BoardView `json:"board"`
}

type RefreshResponse struct {
	Refreshed bool              `json:"refreshed"`
	Board     usecase.BoardView `json:"board"`
}

func (h *BoardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Board.View())
}

func (h *BoardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.Board.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Refreshed: refreshed, Board: h.Board.View()})
}

// HandleMove answers 202 when a backend sync was queued. The returned view
// already shows the optimistic result.
func (h *BoardHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req usecase.MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := h.Board.Move(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if outcome == usecase.MoveQueued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, MoveResponse{Outcome: outcome.String(), Board: h.Board.View()})
}

func (h *BoardHandler) HandleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.Board.Lead(chi.URLParam(r, "id"))
	if !ok {
		writeErrorResponse(w, http.StatusNotFound, usecase.CodeLeadNotFound, "lead is not on the board")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// HandleUpdateLead saves the edit form. Leads with a move still syncing are
// rejected so the two writes cannot interleave.
func (h *BoardHandler) HandleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	current, ok := h.Board.Lead(id)
	if !ok {
		writeErrorResponse(w, http.StatusNotFound, usecase.CodeLeadNotFound, "lead is not on the board")
		return
	}
	if h.Board.Pending(id) {
		writeErrorResponse(w, http.StatusConflict, usecase.CodeLeadBusy, "lead has a stage change still syncing")
		return
	}

	var form usecase.LeadForm
	if !decodeJSON(w, r, &form) {
		return
	}

	updated, err := h.Editor.Update(r.Context(), current, form)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
