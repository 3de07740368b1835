package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
	"go.uber.org/zap"
)

type ListLeadsInput struct {
	Criteria entity.FilterCriteria
	Sort     SortOrder
	// SavedFilter names a preset (id or name). Its criteria replace Criteria.
	SavedFilter string
	// UseDefault applies the default preset when SavedFilter is empty.
	UseDefault bool
}

type ListLeadsOutput struct {
	Leads       []entity.Lead         `json:"leads"`
	Total       int                   `json:"total"`
	Matched     int                   `json:"matched"`
	Criteria    entity.FilterCriteria `json:"filters"`
	SavedFilter *entity.SavedFilter   `json:"saved_filter,omitempty"`
}

// ListLeadsUseCase backs the list view. It fetches its own copy of the
// leads and shares nothing with the board.
type ListLeadsUseCase struct {
	Gateway  LeadGateway
	Filters  *SavedFilterService
	PageSize int
	Now      func() time.Time
}

func NewListLeadsUseCase(gateway LeadGateway, filters *SavedFilterService, pageSize int) *ListLeadsUseCase {
	return &ListLeadsUseCase{Gateway: gateway, Filters: filters, PageSize: pageSize, Now: time.Now}
}

func (uc *ListLeadsUseCase) Execute(ctx context.Context, in ListLeadsInput) (*ListLeadsOutput, error) {
	criteria := in.Criteria
	var preset *entity.SavedFilter

	switch {
	case in.SavedFilter != "" && uc.Filters != nil:
		f, err := uc.Filters.Find(ctx, in.SavedFilter)
		if err != nil {
			return nil, err
		}
		preset = &f
	case in.UseDefault && uc.Filters != nil:
		f, ok, err := uc.Filters.Default(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			preset = &f
		}
	}
	if preset != nil {
		criteria = preset.Criteria
	}

	if in.Sort.Field != "" && !in.Sort.Valid() {
		return nil, ValidationErrors{{"sort", "unknown sort field or direction"}}
	}

	leads, err := uc.Gateway.ListLeads(ctx, ListLeadsParams{PageSize: uc.PageSize})
	if err != nil {
		return nil, &TechnicalError{Code: CodeBackendError, Message: "failed to fetch leads", Err: err}
	}

	matched := SortLeads(ApplyFilter(leads, criteria, uc.Now()), in.Sort)
	return &ListLeadsOutput{
		Leads:       matched,
		Total:       len(leads),
		Matched:     len(matched),
		Criteria:    criteria,
		SavedFilter: preset,
	}, nil
}

// BoardRemover drops a deleted lead from the board.
type BoardRemover interface {
	RemoveLead(id string) bool
}

type DeleteLeadUseCase struct {
	Gateway  LeadGateway
	Board    BoardRemover
	Notifier Notifier
	Logger   *zap.Logger
}

func NewDeleteLeadUseCase(gateway LeadGateway, board BoardRemover, notifier Notifier, logger *zap.Logger) *DeleteLeadUseCase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeleteLeadUseCase{Gateway: gateway, Board: board, Notifier: notifier, Logger: logger}
}

func (uc *DeleteLeadUseCase) Execute(ctx context.Context, id string) error {
	if id == "" {
		return ValidationErrors{{"id", "is required"}}
	}
	if err := uc.Gateway.DeleteLead(ctx, id); err != nil {
		uc.Logger.Warn("lead delete failed", zap.String("lead_id", id), zap.Error(err))
		uc.Notifier.Notify(Notification{Level: NotifyError, Title: "Delete failed", Message: err.Error(), LeadID: id})
		return &TechnicalError{Code: CodeBackendError, Message: "failed to delete lead", Err: err}
	}
	if uc.Board != nil {
		uc.Board.RemoveLead(id)
	}
	uc.Notifier.Notify(Notification{Level: NotifySuccess, Title: "Lead deleted", Message: "Lead " + id + " deleted", LeadID: id})
	return nil
}
