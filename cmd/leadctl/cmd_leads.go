package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xavierca1/leadflow/internal/usecase"
)

var (
	listCriteria criteriaFlags
	listFilter   string
	listDefault  bool
	listSort     string
	listDesc     bool
	listLimit    int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List and delete leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads matching a filter",
	Long: `Lists leads from the backend, filtered and sorted locally.

Examples:
  leadctl leads list --status new,contacted --min-value 1000
  leadctl leads list --filter "Hot leads" --sort deal_value --desc
  leadctl leads list --default`,
	RunE: runLeadsList,
}

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete [lead-id]",
	Short: "Delete a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		uc := usecase.NewDeleteLeadUseCase(deps.client, nil, cliNotifier(), logger)
		if err := uc.Execute(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted lead %s\n", args[0])
		return nil
	},
}

func init() {
	listCriteria.bind(leadsListCmd)
	leadsListCmd.Flags().StringVar(&listFilter, "filter", "", "Saved filter id or name (replaces the criteria flags)")
	leadsListCmd.Flags().BoolVar(&listDefault, "default", false, "Apply the default saved filter")
	leadsListCmd.Flags().StringVar(&listSort, "sort", "", "Sort field (name, deal_value, lead_score, created_at, ...)")
	leadsListCmd.Flags().BoolVar(&listDesc, "desc", false, "Sort descending")
	leadsListCmd.Flags().IntVar(&listLimit, "limit", 0, "Print at most this many leads")

	leadsCmd.AddCommand(leadsListCmd, leadsDeleteCmd)
}

func runLeadsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	sort := usecase.SortOrder{Field: usecase.SortField(listSort), Direction: usecase.SortAsc}
	if listDesc {
		sort.Direction = usecase.SortDesc
	}

	uc := usecase.NewListLeadsUseCase(deps.client, deps.filters, deps.cfg.LeadsPageSize)
	out, err := uc.Execute(ctx, usecase.ListLeadsInput{
		Criteria:    listCriteria.criteria(cmd),
		Sort:        sort,
		SavedFilter: listFilter,
		UseDefault:  listDefault,
	})
	if err != nil {
		return err
	}

	leads := out.Leads
	if listLimit > 0 && len(leads) > listLimit {
		leads = leads[:listLimit]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tSTAGE\tVALUE\tSCORE")
	for _, l := range leads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Name, l.Company, stageLabel(l.Status),
			strconv.FormatFloat(l.DealValue, 'f', 2, 64),
			strconv.FormatFloat(l.LeadScore, 'f', -1, 64))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d of %d leads", out.Matched, out.Total)
	if out.SavedFilter != nil {
		summary += fmt.Sprintf(" (filter %q)", out.SavedFilter.Name)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), summary)
	return nil
}

func stageLabel(id string) string {
	if s, ok := deps.stages.Stage(id); ok {
		return s.Name
	}
	return id + " (unknown)"
}
