package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
)

func TestDiffLead(t *testing.T) {
	l := entity.Lead{ID: "1", Name: "Ana", Email: "ana@example.com", DealValue: 100, Status: "new", Notes: "hi"}

	p := DiffLead(l, FormFromLead(l))
	assert.True(t, p.IsEmpty())

	form := FormFromLead(l)
	form.Name = " Ana Maria "
	form.DealValue = "100.0"
	form.Status = "won"
	p = DiffLead(l, form)

	require.NotNil(t, p.Name)
	assert.Equal(t, "Ana Maria", *p.Name)
	require.NotNil(t, p.Status)
	assert.Equal(t, "won", *p.Status)
	assert.Nil(t, p.DealValue)
	assert.Nil(t, p.Email)
	assert.Nil(t, p.Notes)

	form = FormFromLead(l)
	form.DealValue = ""
	p = DiffLead(l, form)
	require.NotNil(t, p.DealValue)
	assert.Zero(t, *p.DealValue)
}

func TestFormFromLead(t *testing.T) {
	f := FormFromLead(entity.Lead{Name: "Ana", DealValue: 1250.5, Status: "won"})
	assert.Equal(t, "1250.5", f.DealValue)
	assert.Empty(t, FormFromLead(entity.Lead{Name: "Ana"}).DealValue)
}

func TestLeadEditor_Update(t *testing.T) {
	f := newBoardFixture(t, lead("1", "new", 100), lead("2", "won", 50))
	editor := NewLeadEditor(f.gateway, f.stages, f.board, f.notifier, nil)
	current, _ := f.board.Lead("1")

	form := FormFromLead(current)
	form.Status = "won"
	form.DealValue = "400"
	updated, err := editor.Update(context.Background(), current, form)

	require.NoError(t, err)
	assert.Equal(t, "won", updated.Status)
	assert.Equal(t, 400.0, updated.DealValue)
	assert.Equal(t, []string{"update:1:won"}, f.gateway.Calls())

	v := f.board.View()
	assert.Empty(t, v.Snapshot.Stages["new"])
	assert.Equal(t, []string{"2", "1"}, ids(v.Snapshot.Stages["won"]))
	assert.Equal(t, StageMetrics{Count: 2, TotalValue: 450}, v.Metrics["won"])
	assert.Equal(t, []string{NotifySuccess}, f.notifier.Levels())
}

func TestLeadEditor_UnchangedFormSkipsBackend(t *testing.T) {
	f := newBoardFixture(t, lead("1", "new", 100))
	editor := NewLeadEditor(f.gateway, f.stages, f.board, f.notifier, nil)
	current, _ := f.board.Lead("1")

	got, err := editor.Update(context.Background(), current, FormFromLead(current))

	require.NoError(t, err)
	assert.Equal(t, current, got)
	assert.Empty(t, f.gateway.Calls())
	assert.Empty(t, f.notifier.Levels())
}

func TestLeadEditor_InvalidFormNeverReachesBackend(t *testing.T) {
	f := newBoardFixture(t, lead("1", "new", 100))
	editor := NewLeadEditor(f.gateway, f.stages, f.board, f.notifier, nil)
	current, _ := f.board.Lead("1")

	form := FormFromLead(current)
	form.Email = "not-an-email"
	form.Status = "archived"
	_, err := editor.Update(context.Background(), current, form)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.NotEmpty(t, verrs.Field("email"))
	assert.NotEmpty(t, verrs.Field("status"))
	assert.Empty(t, f.gateway.Calls())
}

func TestLeadEditor_BackendFailureLeavesBoard(t *testing.T) {
	f := newBoardFixture(t, lead("1", "new", 100))
	f.gateway.update = func(string, entity.LeadPatch) error { return errors.New("503") }
	editor := NewLeadEditor(f.gateway, f.stages, f.board, f.notifier, nil)
	current, _ := f.board.Lead("1")
	before := f.board.View()

	form := FormFromLead(current)
	form.Name = "Renamed"
	got, err := editor.Update(context.Background(), current, form)

	assert.True(t, IsTechnicalError(err))
	assert.Equal(t, current, got)
	assert.Equal(t, before.Snapshot, f.board.View().Snapshot)
	assert.Equal(t, []string{NotifyError}, f.notifier.Levels())
}
