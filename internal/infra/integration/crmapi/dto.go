package crmapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

// number accepts a JSON number, a numeric string or null. Anything else
// decodes to zero instead of failing the whole payload.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = number(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = number(f)
	}
	return nil
}

// identifier accepts string or numeric ids.
type identifier string

func (id *identifier) UnmarshalJSON(b []byte) error {
	*id = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*id = identifier(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = identifier(n.String())
	}
	return nil
}

// timestamp tolerates missing or malformed values.
type timestamp struct {
	time.Time
	Valid bool
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	*t = timestamp{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if v, err := time.Parse(layout, s); err == nil {
			*t = timestamp{Time: v, Valid: true}
			return nil
		}
	}
	return nil
}

type leadDTO struct {
	ID              identifier `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Company         string     `json:"company"`
	DealValue       number     `json:"deal_value"`
	Notes           string     `json:"notes"`
	Status          string     `json:"status"`
	Source          string     `json:"source"`
	Campaign        string     `json:"campaign"`
	AssignedTo      string     `json:"assigned_to"`
	Tags            []string   `json:"tags"`
	LeadScore       number     `json:"lead_score"`
	LastContactedAt timestamp  `json:"last_contacted_at"`
	ActivityCount   number     `json:"activity_count"`
	CreatedAt       timestamp  `json:"created_at"`
	UpdatedAt       timestamp  `json:"updated_at"`
}

func (d leadDTO) toEntity() entity.Lead {
	l := entity.Lead{
		ID:            string(d.ID),
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		Company:       d.Company,
		DealValue:     float64(d.DealValue),
		Notes:         d.Notes,
		Status:        d.Status,
		Source:        d.Source,
		Campaign:      d.Campaign,
		AssignedTo:    d.AssignedTo,
		Tags:          d.Tags,
		LeadScore:     float64(d.LeadScore),
		ActivityCount: int(d.ActivityCount),
		CreatedAt:     d.CreatedAt.Time,
		UpdatedAt:     d.UpdatedAt.Time,
	}
	if d.LastContactedAt.Valid {
		t := d.LastContactedAt.Time
		l.LastContactedAt = &t
	}
	return l
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	User         *entity.UserProfile `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
