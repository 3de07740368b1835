package usecase

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

const dateLayout = "2006-01-02"

// ApplyFilter keeps the leads matching every set key of c. It never
// mutates its input.
func ApplyFilter(leads []entity.Lead, c entity.FilterCriteria, now time.Time) []entity.Lead {
	m := newMatcher(c, now)
	out := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		if m.match(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}

type matcher struct {
	c        entity.FilterCriteria
	search   string
	from, to time.Time // to is exclusive: the day after the inclusive bound
	since    time.Time
}

func newMatcher(c entity.FilterCriteria, now time.Time) matcher {
	m := matcher{c: c, search: strings.ToLower(strings.TrimSpace(c.Search))}
	if c.DateRange != nil {
		if t, err := time.Parse(dateLayout, c.DateRange.From); err == nil {
			m.from = t
		}
		if t, err := time.Parse(dateLayout, c.DateRange.To); err == nil {
			m.to = t.AddDate(0, 0, 1)
		}
	}
	if c.LastContactedWithinDays != nil {
		m.since = now.AddDate(0, 0, -*c.LastContactedWithinDays)
	}
	return m
}

func (m matcher) match(l entity.Lead) bool {
	c := m.c
	if m.search != "" && !containsFold(m.search, l.Name, l.Email, l.Phone, l.Notes) {
		return false
	}
	if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, l.Status) {
		return false
	}
	if !anyOf(c.Sources, l.Source) ||
		!anyOf(c.Campaigns, l.Campaign) || !anyOf(c.Assignees, l.AssignedTo) {
		return false
	}
	if len(c.Tags) > 0 && !slices.ContainsFunc(l.Tags, func(t string) bool { return anyOf(c.Tags, t) }) {
		return false
	}
	if !m.from.IsZero() && l.CreatedAt.Before(m.from) {
		return false
	}
	if !m.to.IsZero() && !l.CreatedAt.Before(m.to) {
		return false
	}
	if c.MinLeadScore != nil && l.LeadScore < *c.MinLeadScore {
		return false
	}
	if c.MinDealValue != nil && dealValue(l) < *c.MinDealValue {
		return false
	}
	if c.LastContactedWithinDays != nil && (l.LastContactedAt == nil || l.LastContactedAt.Before(m.since)) {
		return false
	}
	if c.HasActivity != nil && (l.ActivityCount > 0) != *c.HasActivity {
		return false
	}
	return true
}

// anyOf is true for an empty value list. Statuses are stage ids and skip it:
// they match exactly.
func anyOf(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	return slices.ContainsFunc(values, func(x string) bool { return strings.EqualFold(x, v) })
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type SortField string

const (
	SortByName          SortField = "name"
	SortByEmail         SortField = "email"
	SortByCompany       SortField = "company"
	SortByStatus        SortField = "status"
	SortBySource        SortField = "source"
	SortByDealValue     SortField = "deal_value"
	SortByLeadScore     SortField = "lead_score"
	SortByCreatedAt     SortField = "created_at"
	SortByUpdatedAt     SortField = "updated_at"
	SortByLastContacted SortField = "last_contacted_at"
)

type SortOrder struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

func (s SortOrder) Valid() bool {
	_, ok := comparators[s.Field]
	return ok && (s.Direction == "" || s.Direction == SortAsc || s.Direction == SortDesc)
}

var comparators = map[SortField]func(a, b entity.Lead) int{
	SortByName:      func(a, b entity.Lead) int { return compareFold(a.Name, b.Name) },
	SortByEmail:     func(a, b entity.Lead) int { return compareFold(a.Email, b.Email) },
	SortByCompany:   func(a, b entity.Lead) int { return compareFold(a.Company, b.Company) },
	SortByStatus:    func(a, b entity.Lead) int { return compareFold(a.Status, b.Status) },
	SortBySource:    func(a, b entity.Lead) int { return compareFold(a.Source, b.Source) },
	SortByDealValue: func(a, b entity.Lead) int { return cmp.Compare(dealValue(a), dealValue(b)) },
	SortByLeadScore: func(a, b entity.Lead) int { return cmp.Compare(a.LeadScore, b.LeadScore) },
	SortByCreatedAt: func(a, b entity.Lead) int { return a.CreatedAt.Compare(b.CreatedAt) },
	SortByUpdatedAt: func(a, b entity.Lead) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	SortByLastContacted: func(a, b entity.Lead) int {
		return timeOrZero(a.LastContactedAt).Compare(timeOrZero(b.LastContactedAt))
	},
}

// SortLeads returns a stably sorted copy. An empty or unknown field keeps
// the input order.
func SortLeads(leads []entity.Lead, order SortOrder) []entity.Lead {
	out := slices.Clone(leads)
	compare, ok := comparators[order.Field]
	if !ok {
		return out
	}
	if order.Direction == SortDesc {
		slices.SortStableFunc(out, func(a, b entity.Lead) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
