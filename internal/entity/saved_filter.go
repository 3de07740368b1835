package entity

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

type SavedFilter struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	IsDefault   bool           `json:"is_default"`
	Criteria    FilterCriteria `json:"filters"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FilterCriteria is the predicate of a saved filter. Every set key must
// match (AND); list keys match when any of their values does (OR).
type FilterCriteria struct {
	Search                  string     `json:"search,omitempty"`
	Statuses                StringList `json:"status,omitempty"`
	Sources                 StringList `json:"source,omitempty"`
	Campaigns               StringList `json:"campaign,omitempty"`
	Assignees               StringList `json:"assigned_to,omitempty"`
	Tags                    StringList `json:"tags,omitempty"`
	DateRange               *DateRange `json:"date_range,omitempty"`
	MinLeadScore            *float64   `json:"min_lead_score,omitempty"`
	MinDealValue            *float64   `json:"min_deal_value,omitempty"`
	LastContactedWithinDays *int       `json:"last_contacted_within_days,omitempty"`
	HasActivity             *bool      `json:"has_activity,omitempty"`
}

// StringList decodes from either a JSON array of strings or a single
// string. It always encodes as an array.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		if one == "" {
			*l = nil
		} else {
			*l = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// DateRange bounds are calendar days (YYYY-MM-DD), both inclusive.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

func (c FilterCriteria) Clone() FilterCriteria {
	out := c
	out.Statuses = slices.Clone(c.Statuses)
	out.Sources = slices.Clone(c.Sources)
	out.Campaigns = slices.Clone(c.Campaigns)
	out.Assignees = slices.Clone(c.Assignees)
	out.Tags = slices.Clone(c.Tags)
	if c.DateRange != nil {
		dr := *c.DateRange
		out.DateRange = &dr
	}
	if c.MinLeadScore != nil {
		v := *c.MinLeadScore
		out.MinLeadScore = &v
	}
	if c.MinDealValue != nil {
		v := *c.MinDealValue
		out.MinDealValue = &v
	}
	if c.LastContactedWithinDays != nil {
		v := *c.LastContactedWithinDays
		out.LastContactedWithinDays = &v
	}
	if c.HasActivity != nil {
		v := *c.HasActivity
		out.HasActivity = &v
	}
	return out
}
