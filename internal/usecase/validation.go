package usecase

import (
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned when user input is rejected before it
// reaches the backend. Each entry names the offending field.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Field returns the message for field, or "" when the field passed.
func (v ValidationErrors) Field(field string) string {
	for _, e := range v {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// LeadForm mirrors the edit form: every value arrives as text.
type LeadForm struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	DealValue string `json:"deal_value"`
	Notes     string `json:"notes"`
	Status    string `json:"status"`
	Source    string `json:"source"`
}

func ValidateLeadForm(form LeadForm, knownStage func(string) bool) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(form.Name) == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	} else if len(form.Name) > 200 {
		errs = append(errs, ValidationError{"name", "must not exceed 200 characters"})
	}

	if email := strings.TrimSpace(form.Email); email != "" && !isValidEmail(email) {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}

	if dv := strings.TrimSpace(form.DealValue); dv != "" {
		if _, err := parseDealValue(dv); err != nil {
			errs = append(errs, ValidationError{"deal_value", err.Error()})
		}
	}

	if status := strings.TrimSpace(form.Status); status != "" && knownStage != nil && !knownStage(status) {
		errs = append(errs, ValidationError{"status", "is not a pipeline stage"})
	}

	return errs
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress accepts "Name <a@b>"; the form wants the bare address.
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func parseDealValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("must be a number")
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return v, nil
}
