package usecase

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
)

func filterFixture() []entity.Lead {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 15, 0, 0, 0, time.UTC) }
	contacted := day(28)
	return []entity.Lead{
		{ID: "1", Name: "Alice Smith", Email: "alice@acme.com", Status: "new", Source: "Web", Campaign: "spring", Tags: []string{"hot"}, LeadScore: 80, DealValue: 500, CreatedAt: day(1), ActivityCount: 3, LastContactedAt: &contacted},
		{ID: "2", Name: "Bob Jones", Email: "bob@globex.com", Status: "won", Source: "ads", Campaign: "spring", Tags: []string{"cold"}, LeadScore: 20, DealValue: 1500, CreatedAt: day(5)},
		{ID: "3", Name: "Carol", Phone: "+1 555 0100", Status: "new", Source: "referral", AssignedTo: "dana", LeadScore: 55, DealValue: 0, CreatedAt: day(10), Notes: "Met at ACME expo"},
		{ID: "4", Name: "Dan", Status: "lost", Source: "web", Tags: []string{"hot", "vip"}, LeadScore: 95, DealValue: 50, CreatedAt: day(31), ActivityCount: 1},
	}
}

func filterIDs(leads []entity.Lead) []string {
	out := []string{}
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}

func TestApplyFilter(t *testing.T) {
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	intp := func(v int) *int { return &v }
	fp := func(v float64) *float64 { return &v }
	bp := func(v bool) *bool { return &v }

	tests := []struct {
		name     string
		criteria entity.FilterCriteria
		want     []string
	}{
		{"empty criteria keeps all", entity.FilterCriteria{}, []string{"1", "2", "3", "4"}},
		{"search matches name", entity.FilterCriteria{Search: "ALICE"}, []string{"1"}},
		{"search matches notes and email", entity.FilterCriteria{Search: "acme"}, []string{"1", "3"}},
		{"search matches phone", entity.FilterCriteria{Search: "555"}, []string{"3"}},
		{"status list is OR", entity.FilterCriteria{Statuses: []string{"won", "lost"}}, []string{"2", "4"}},
		{"status matches stage id exactly", entity.FilterCriteria{Statuses: []string{"New"}}, []string{}},
		{"source is case-insensitive", entity.FilterCriteria{Sources: []string{"WEB"}}, []string{"1", "4"}},
		{"keys are ANDed", entity.FilterCriteria{Sources: []string{"web"}, Statuses: []string{"new"}}, []string{"1"}},
		{"campaign", entity.FilterCriteria{Campaigns: []string{"spring"}}, []string{"1", "2"}},
		{"assignee", entity.FilterCriteria{Assignees: []string{"dana"}}, []string{"3"}},
		{"tags match any", entity.FilterCriteria{Tags: []string{"vip", "cold"}}, []string{"2", "4"}},
		{"date range is inclusive", entity.FilterCriteria{DateRange: &entity.DateRange{From: "2024-03-05", To: "2024-03-10"}}, []string{"2", "3"}},
		{"open-ended date range", entity.FilterCriteria{DateRange: &entity.DateRange{From: "2024-03-10"}}, []string{"3", "4"}},
		{"min lead score", entity.FilterCriteria{MinLeadScore: fp(55)}, []string{"1", "3", "4"}},
		{"min deal value", entity.FilterCriteria{MinDealValue: fp(500)}, []string{"1", "2"}},
		{"last contacted within days", entity.FilterCriteria{LastContactedWithinDays: intp(7)}, []string{"1"}},
		{"has activity", entity.FilterCriteria{HasActivity: bp(true)}, []string{"1", "4"}},
		{"has no activity", entity.FilterCriteria{HasActivity: bp(false)}, []string{"2", "3"}},
		{"nothing matches", entity.FilterCriteria{Statuses: []string{"won"}, Sources: []string{"web"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterIDs(ApplyFilter(filterFixture(), tt.criteria, now)))
		})
	}
}

func TestApplyFilter_SingleValueKeyIsANDed(t *testing.T) {
	leads := []entity.Lead{
		{ID: "1", Status: "new", Source: "web"},
		{ID: "2", Status: "won", Source: "web"},
	}

	var c entity.FilterCriteria
	require.NoError(t, json.Unmarshal([]byte(`{"status":["new","won"],"source":"referral"}`), &c))
	assert.Equal(t, []string{}, filterIDs(ApplyFilter(leads, c, time.Now())))

	var statusOnly entity.FilterCriteria
	require.NoError(t, json.Unmarshal([]byte(`{"status":["new","won"]}`), &statusOnly))
	assert.Equal(t, []string{"1", "2"}, filterIDs(ApplyFilter(leads, statusOnly, time.Now())))
}

// Adding a key can only shrink the result.
func TestApplyFilter_AddingKeysNarrows(t *testing.T) {
	now := time.Now()
	leads := filterFixture()
	base := entity.FilterCriteria{Sources: []string{"web", "ads"}}
	narrower := base
	narrower.Statuses = []string{"new"}

	wide := filterIDs(ApplyFilter(leads, base, now))
	narrow := filterIDs(ApplyFilter(leads, narrower, now))

	for _, id := range narrow {
		assert.Contains(t, wide, id)
	}
	assert.Less(t, len(narrow), len(wide))
}

func TestApplyFilter_DoesNotMutateInput(t *testing.T) {
	leads := filterFixture()
	out := ApplyFilter(leads, entity.FilterCriteria{}, time.Now())
	out[0].Name = "changed"
	out[0].Tags[0] = "changed"

	assert.Equal(t, "Alice Smith", leads[0].Name)
	assert.Equal(t, "hot", leads[0].Tags[0])
}

func TestSortLeads(t *testing.T) {
	leads := filterFixture()

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortOrder{Field: SortByName}, []string{"1", "2", "3", "4"}},
		{SortOrder{Field: SortByName, Direction: SortDesc}, []string{"4", "3", "2", "1"}},
		{SortOrder{Field: SortByDealValue}, []string{"3", "4", "1", "2"}},
		{SortOrder{Field: SortByLeadScore, Direction: SortDesc}, []string{"4", "1", "3", "2"}},
		{SortOrder{Field: SortByCreatedAt, Direction: SortDesc}, []string{"4", "3", "2", "1"}},
		{SortOrder{Field: SortBySource}, []string{"2", "3", "1", "4"}},
		{SortOrder{}, []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order.Field)+"_"+string(tt.order.Direction), func(t *testing.T) {
			assert.Equal(t, tt.want, filterIDs(SortLeads(leads, tt.order)))
		})
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, filterIDs(leads))
}

func TestSortLeads_Stable(t *testing.T) {
	leads := []entity.Lead{
		{ID: "a", Status: "new"},
		{ID: "b", Status: "won"},
		{ID: "c", Status: "new"},
		{ID: "d", Status: "won"},
		{ID: "e", Status: "new"},
	}

	asc := SortLeads(leads, SortOrder{Field: SortByStatus})
	assert.Equal(t, []string{"a", "c", "e", "b", "d"}, filterIDs(asc))

	desc := SortLeads(leads, SortOrder{Field: SortByStatus, Direction: SortDesc})
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, filterIDs(desc))
}

func TestSortLeads_UnsetTimestampsFirst(t *testing.T) {
	leads := filterFixture()
	sorted := SortLeads(leads, SortOrder{Field: SortByLastContacted})
	require.Len(t, sorted, 4)
	assert.Equal(t, "1", sorted[3].ID)
}

func TestSortOrderValid(t *testing.T) {
	assert.True(t, SortOrder{Field: SortByName}.Valid())
	assert.True(t, SortOrder{Field: SortByName, Direction: SortDesc}.Valid())
	assert.False(t, SortOrder{Field: "color"}.Valid())
	assert.False(t, SortOrder{Field: SortByName, Direction: "sideways"}.Valid())
}
