package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/integration/crmapi"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []usecase.ValidationError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeError maps use case errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var verrs usecase.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   usecase.CodeValidationFailed,
			Message: "validation failed",
			Fields:  verrs,
		})
		return
	}

	if errors.Is(err, crmapi.ErrUnauthenticated) {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHENTICATED", "sign in to the CRM first")
		return
	}
	if errors.Is(err, entity.ErrLeadNotFound) {
		writeErrorResponse(w, http.StatusNotFound, usecase.CodeLeadNotFound, err.Error())
		return
	}

	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeErrorResponse(w, domainStatus(de.Code), de.Code, de.Message)
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		status := http.StatusBadGateway
		if te.Code == usecase.CodeStorageError {
			status = http.StatusInternalServerError
		}
		writeErrorResponse(w, status, te.Code, te.Error())
		return
	}

	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

func domainStatus(code string) int {
	switch code {
	case usecase.CodeLeadNotFound, usecase.CodeFilterNotFound, usecase.CodeStageNotFound:
		return http.StatusNotFound
	case usecase.CodeInvalidMove, usecase.CodeLeadBusy:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return false
	}
	return true
}
