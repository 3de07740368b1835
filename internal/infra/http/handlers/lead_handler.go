package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type LeadHandler struct {
	List   *usecase.ListLeadsUseCase
	Delete *usecase.DeleteLeadUseCase
}

func NewLeadHandler(list *usecase.ListLeadsUseCase, del *usecase.DeleteLeadUseCase) *LeadHandler {
	return &LeadHandler{List: list, Delete: del}
}

func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	in, errs := parseListQuery(r.URL.Query())
	if len(errs) > 0 {
		writeError(w, errs)
		return
	}

	out, err := h.List.Execute(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Delete.Execute(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseListQuery reads filter criteria from the query string. List values
// are comma separated or repeated.
func parseListQuery(q url.Values) (usecase.ListLeadsInput, usecase.ValidationErrors) {
	var (
		in   usecase.ListLeadsInput
		errs usecase.ValidationErrors
	)
	c := &in.Criteria

	c.Search = q.Get("search")
	c.Statuses = listParam(q, "status")
	c.Sources = listParam(q, "source")
	c.Campaigns = listParam(q, "campaign")
	c.Assignees = listParam(q, "assigned_to")
	c.Tags = listParam(q, "tags")

	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		c.DateRange = &entity.DateRange{From: from, To: to}
	}

	floatParam := func(name string) *float64 {
		s := q.Get(name)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: name, Message: "must be a number"})
			return nil
		}
		return &v
	}
	c.MinLeadScore = floatParam("min_lead_score")
	c.MinDealValue = floatParam("min_deal_value")

	if s := q.Get("last_contacted_within_days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			errs = append(errs, usecase.ValidationError{Field: "last_contacted_within_days", Message: "must be a non-negative integer"})
		} else {
			c.LastContactedWithinDays = &n
		}
	}
	if s := q.Get("has_activity"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: "has_activity", Message: "must be true or false"})
		} else {
			c.HasActivity = &b
		}
	}

	in.Sort = usecase.SortOrder{
		Field:     usecase.SortField(q.Get("sort")),
		Direction: usecase.SortDirection(strings.ToLower(q.Get("direction"))),
	}
	in.SavedFilter = q.Get("filter")
	in.UseDefault = q.Get("default") == "true"
	return in, errs
}

func listParam(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
