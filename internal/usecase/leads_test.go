package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
)

func TestListLeads(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{leads: []entity.Lead{
		{ID: "1", Name: "Zed", Source: "web", DealValue: 10},
		{ID: "2", Name: "Amy", Source: "ads", DealValue: 30},
		{ID: "3", Name: "Bob", Source: "web", DealValue: 20},
	}}
	filters := newFilterService(newMemStore())
	uc := NewListLeadsUseCase(gw, filters, 50)

	out, err := uc.Execute(ctx, ListLeadsInput{
		Criteria: entity.FilterCriteria{Sources: []string{"web"}},
		Sort:     SortOrder{Field: SortByName},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 2, out.Matched)
	assert.Equal(t, []string{"3", "1"}, ids(out.Leads))

	preset, err := filters.Create(ctx, SavedFilterInput{
		Name:      "Ads",
		IsDefault: true,
		Criteria:  entity.FilterCriteria{Sources: []string{"ads"}},
	})
	require.NoError(t, err)

	out, err = uc.Execute(ctx, ListLeadsInput{SavedFilter: "ads"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(out.Leads))
	require.NotNil(t, out.SavedFilter)
	assert.Equal(t, preset.ID, out.SavedFilter.ID)

	out, err = uc.Execute(ctx, ListLeadsInput{UseDefault: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(out.Leads))

	_, err = uc.Execute(ctx, ListLeadsInput{SavedFilter: "missing"})
	assert.True(t, IsDomainError(err))

	_, err = uc.Execute(ctx, ListLeadsInput{Sort: SortOrder{Field: "shoe_size"}})
	var verrs ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestListLeads_BackendFailure(t *testing.T) {
	uc := NewListLeadsUseCase(&fakeGateway{listErr: errors.New("down")}, nil, 0)
	_, err := uc.Execute(context.Background(), ListLeadsInput{})
	assert.True(t, IsTechnicalError(err))
}

func TestDeleteLead(t *testing.T) {
	f := newBoardFixture(t, lead("1", "new", 100), lead("2", "new", 5))
	uc := NewDeleteLeadUseCase(f.gateway, f.board, f.notifier, nil)

	require.NoError(t, uc.Execute(context.Background(), "1"))

	assert.Equal(t, []string{"delete:1"}, f.gateway.Calls())
	_, ok := f.board.Lead("1")
	assert.False(t, ok)
	assert.Equal(t, StageMetrics{Count: 1, TotalValue: 5}, f.board.View().Metrics["new"])
	assert.Equal(t, []string{NotifySuccess}, f.notifier.Levels())

	var verrs ValidationErrors
	assert.ErrorAs(t, uc.Execute(context.Background(), ""), &verrs)
}
