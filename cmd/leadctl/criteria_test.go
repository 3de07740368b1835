package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadflow/internal/entity"
)

func parseCriteria(t *testing.T, args ...string) (entity.FilterCriteria, error) {
	t.Helper()
	var f criteriaFlags
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	f.bind(cmd)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return entity.FilterCriteria{}, err
	}
	return f.criteria(cmd), nil
}

func TestCriteriaFlags(t *testing.T) {
	got, err := parseCriteria(t,
		"--search", "acme",
		"--status", "new,contacted",
		"--tag", "vip", "--tag", "b2b",
		"--from", "2024-01-01",
		"--min-value", "0",
		"--contacted-within", "7",
		"--no-activity",
	)
	require.NoError(t, err)

	zero, seven, no := 0.0, 7, false
	want := entity.FilterCriteria{
		Search:                  "acme",
		Statuses:                []string{"new", "contacted"},
		Tags:                    []string{"vip", "b2b"},
		DateRange:               &entity.DateRange{From: "2024-01-01"},
		MinDealValue:            &zero,
		LastContactedWithinDays: &seven,
		HasActivity:             &no,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("criteria mismatch (-want +got):\n%s", diff)
	}
}

func TestCriteriaFlags_UnsetKeysStayNil(t *testing.T) {
	got, err := parseCriteria(t)
	require.NoError(t, err)
	assert.Nil(t, got.MinLeadScore)
	assert.Nil(t, got.MinDealValue)
	assert.Nil(t, got.HasActivity)
	assert.Nil(t, got.DateRange)
}

func TestCriteriaFlags_ActivityFlagsExclusive(t *testing.T) {
	_, err := parseCriteria(t, "--has-activity", "--no-activity")
	assert.Error(t, err)
}
