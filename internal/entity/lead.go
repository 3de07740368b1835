package entity

import (
	"errors"
	"slices"
	"time"
)

var ErrLeadNotFound = errors.New("lead not found")

type Lead struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Company   string  `json:"company,omitempty"`
	DealValue float64 `json:"deal_value"`
	Notes     string  `json:"notes,omitempty"`
	Status    string  `json:"status"` // stage id
	Source    string  `json:"source,omitempty"`

	Campaign        string     `json:"campaign,omitempty"`
	AssignedTo      string     `json:"assigned_to,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	LeadScore       float64    `json:"lead_score"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	ActivityCount   int        `json:"activity_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy that shares no slices or pointers with l.
func (l Lead) Clone() Lead {
	out := l
	out.Tags = slices.Clone(l.Tags)
	if l.LastContactedAt != nil {
		t := *l.LastContactedAt
		out.LastContactedAt = &t
	}
	return out
}

// LeadPatch carries only the fields that changed. Nil means untouched.
type LeadPatch struct {
	Name      *string  `json:"name,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Company   *string  `json:"company,omitempty"`
	DealValue *float64 `json:"deal_value,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	Status    *string  `json:"status,omitempty"`
	Source    *string  `json:"source,omitempty"`
}

func (p LeadPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Company == nil &&
		p.DealValue == nil && p.Notes == nil && p.Status == nil && p.Source == nil
}

// Apply returns l with every set field of p copied over.
func (p LeadPatch) Apply(l Lead) Lead {
	out := l.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Phone != nil {
		out.Phone = *p.Phone
	}
	if p.Company != nil {
		out.Company = *p.Company
	}
	if p.DealValue != nil {
		out.DealValue = *p.DealValue
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Source != nil {
		out.Source = *p.Source
	}
	return out
}

const (
	NoteTypeSystem = "system"
	NoteTypeUser   = "user"
)

type NoteInput struct {
	Content  string `json:"content"`
	NoteType string `json:"note_type"`
}
