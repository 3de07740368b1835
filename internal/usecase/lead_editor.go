package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
	"go.uber.org/zap"
)

// BoardUpdater receives leads changed outside a board move.
type BoardUpdater interface {
	ApplyLeadUpdate(lead entity.Lead)
}

type LeadEditor struct {
	Gateway  LeadGateway
	Stages   *StageRegistry
	Board    BoardUpdater
	Notifier Notifier
	Logger   *zap.Logger
}

func NewLeadEditor(gateway LeadGateway, stages *StageRegistry, board BoardUpdater, notifier Notifier, logger *zap.Logger) *LeadEditor {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadEditor{Gateway: gateway, Stages: stages, Board: board, Notifier: notifier, Logger: logger}
}

// FormFromLead pre-populates the edit form.
func FormFromLead(l entity.Lead) LeadForm {
	f := LeadForm{
		Name:    l.Name,
		Email:   l.Email,
		Phone:   l.Phone,
		Company: l.Company,
		Notes:   l.Notes,
		Status:  l.Status,
		Source:  l.Source,
	}
	if l.DealValue != 0 {
		f.DealValue = formatAmount(l.DealValue)
	}
	return f
}

// Update validates the form, sends only the fields that differ from
// current, and applies the result to the board. An unchanged form makes
// no backend call.
func (e *LeadEditor) Update(ctx context.Context, current entity.Lead, form LeadForm) (entity.Lead, error) {
	var known func(string) bool
	if e.Stages != nil {
		known = e.Stages.Has
	}
	if errs := ValidateLeadForm(form, known); len(errs) > 0 {
		return current, errs
	}

	patch := DiffLead(current, form)
	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := e.Gateway.UpdateLead(ctx, current.ID, patch)
	if err != nil {
		e.Logger.Warn("lead update failed", zap.String("lead_id", current.ID), zap.Error(err))
		e.Notifier.Notify(Notification{
			Level:   NotifyError,
			Title:   "Update failed",
			Message: "Could not save " + displayName(current) + ": " + err.Error(),
			LeadID:  current.ID,
		})
		return current, &TechnicalError{Code: CodeBackendError, Message: "failed to update lead", Err: err}
	}

	// Fall back to the local merge when the backend echoes nothing useful.
	result := patch.Apply(current)
	if updated != nil && updated.ID == current.ID {
		result = *updated
	}
	if e.Board != nil {
		e.Board.ApplyLeadUpdate(result)
	}
	e.Notifier.Notify(Notification{
		Level:   NotifySuccess,
		Title:   "Lead updated",
		Message: displayName(result) + " saved",
		LeadID:  result.ID,
	})
	return result, nil
}

// DiffLead builds a patch of the form fields that differ from l. The form
// must already be valid.
func DiffLead(l entity.Lead, form LeadForm) entity.LeadPatch {
	var p entity.LeadPatch
	setIfChanged := func(dst **string, old, v string) {
		v = strings.TrimSpace(v)
		if v != old {
			*dst = &v
		}
	}
	setIfChanged(&p.Name, l.Name, form.Name)
	setIfChanged(&p.Email, l.Email, form.Email)
	setIfChanged(&p.Phone, l.Phone, form.Phone)
	setIfChanged(&p.Company, l.Company, form.Company)
	setIfChanged(&p.Source, l.Source, form.Source)
	if strings.TrimSpace(form.Status) != "" {
		setIfChanged(&p.Status, l.Status, form.Status)
	}
	if form.Notes != l.Notes {
		notes := form.Notes
		p.Notes = &notes
	}

	dv := 0.0
	if s := strings.TrimSpace(form.DealValue); s != "" {
		dv, _ = parseDealValue(s)
	}
	if dv != l.DealValue {
		p.DealValue = &dv
	}
	return p
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
