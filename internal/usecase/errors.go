package usecase

import "errors"

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps a failure of a collaborator (backend, storage).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

const (
	CodeInvalidMove      = "INVALID_MOVE"
	CodeLeadNotFound     = "LEAD_NOT_FOUND"
	CodeLeadBusy         = "LEAD_BUSY"
	CodeFilterNotFound   = "FILTER_NOT_FOUND"
	CodeStageNotFound    = "STAGE_NOT_FOUND"
	CodeBackendError     = "BACKEND_ERROR"
	CodeStorageError     = "STORAGE_ERROR"
	CodeValidationFailed = "VALIDATION_ERROR"
)
