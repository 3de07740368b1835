package main

import (
	"github.com/spf13/cobra"

	"github.com/xavierca1/leadflow/internal/entity"
)

// criteriaFlags binds the filter keys shared by "leads list" and
// "filters save".
type criteriaFlags struct {
	search      string
	statuses    []string
	sources     []string
	campaigns   []string
	assignees   []string
	tags        []string
	from, to    string
	minScore    float64
	minValue    float64
	contactedIn int
	hasActivity bool
	noActivity  bool
}

func (f *criteriaFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.search, "search", "", "Match name, email, phone or notes")
	fs.StringSliceVar(&f.statuses, "status", nil, "Stage ids (repeatable)")
	fs.StringSliceVar(&f.sources, "source", nil, "Lead sources")
	fs.StringSliceVar(&f.campaigns, "campaign", nil, "Campaigns")
	fs.StringSliceVar(&f.assignees, "assigned-to", nil, "Assignees")
	fs.StringSliceVar(&f.tags, "tag", nil, "Tags (any)")
	fs.StringVar(&f.from, "from", "", "Created on or after (YYYY-MM-DD)")
	fs.StringVar(&f.to, "to", "", "Created on or before (YYYY-MM-DD)")
	fs.Float64Var(&f.minScore, "min-score", 0, "Minimum lead score")
	fs.Float64Var(&f.minValue, "min-value", 0, "Minimum deal value")
	fs.IntVar(&f.contactedIn, "contacted-within", 0, "Contacted within this many days")
	fs.BoolVar(&f.hasActivity, "has-activity", false, "Only leads with activity")
	fs.BoolVar(&f.noActivity, "no-activity", false, "Only leads without activity")
	cmd.MarkFlagsMutuallyExclusive("has-activity", "no-activity")
}

func (f *criteriaFlags) criteria(cmd *cobra.Command) entity.FilterCriteria {
	fs := cmd.Flags()
	c := entity.FilterCriteria{
		Search:    f.search,
		Statuses:  f.statuses,
		Sources:   f.sources,
		Campaigns: f.campaigns,
		Assignees: f.assignees,
		Tags:      f.tags,
	}
	if f.from != "" || f.to != "" {
		c.DateRange = &entity.DateRange{From: f.from, To: f.to}
	}
	if fs.Changed("min-score") {
		v := f.minScore
		c.MinLeadScore = &v
	}
	if fs.Changed("min-value") {
		v := f.minValue
		c.MinDealValue = &v
	}
	if fs.Changed("contacted-within") {
		v := f.contactedIn
		c.LastContactedWithinDays = &v
	}
	switch {
	case f.hasActivity:
		v := true
		c.HasActivity = &v
	case f.noActivity:
		v := false
		c.HasActivity = &v
	}
	return c
}
