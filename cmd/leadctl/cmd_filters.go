package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xavierca1/leadflow/internal/usecase"
)

var (
	saveCriteria    criteriaFlags
	saveDescription string
	saveDefault     bool
	clearDefault    bool
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage saved lead filters",
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		filters, err := deps.filters.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDEFAULT\tDESCRIPTION")
		for _, f := range filters {
			def := ""
			if f.IsDefault {
				def = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.ID, f.Name, def, f.Description)
		}
		return w.Flush()
	},
}

var filtersSaveCmd = &cobra.Command{
	Use:   "save [name]",
	Short: "Save the given criteria as a named filter",
	Long: `Saves a filter preset. Saving under an existing name replaces it.

Example:
  leadctl filters save "Hot leads" --status qualified,proposal --min-score 80 --default`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFiltersSave,
}

var filtersDeleteCmd = &cobra.Command{
	Use:   "delete [id-or-name]",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		f, err := deps.filters.Find(ctx, args[0])
		if err != nil {
			return err
		}
		if err := deps.filters.Delete(ctx, f.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted filter %q\n", f.Name)
		return nil
	},
}

var filtersDefaultCmd = &cobra.Command{
	Use:   "default [id-or-name]",
	Short: "Mark a filter as the default, or clear it with --clear",
	Args: func(cmd *cobra.Command, args []string) error {
		if clearDefault {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if clearDefault {
			if err := deps.filters.ClearDefault(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Default filter cleared")
			return nil
		}
		f, err := deps.filters.Find(ctx, args[0])
		if err != nil {
			return err
		}
		if err := deps.filters.SetDefault(ctx, f.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%q is now the default filter\n", f.Name)
		return nil
	},
}

func init() {
	saveCriteria.bind(filtersSaveCmd)
	filtersSaveCmd.Flags().StringVar(&saveDescription, "description", "", "Filter description")
	filtersSaveCmd.Flags().BoolVar(&saveDefault, "default", false, "Make this the default filter")
	filtersDefaultCmd.Flags().BoolVar(&clearDefault, "clear", false, "Clear the default filter")

	filtersCmd.AddCommand(filtersListCmd, filtersSaveCmd, filtersDeleteCmd, filtersDefaultCmd)
}

func runFiltersSave(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	in := usecase.SavedFilterInput{
		Name:        strings.Join(args, " "),
		Description: saveDescription,
		IsDefault:   saveDefault,
		Criteria:    saveCriteria.criteria(cmd),
	}

	if existing, err := deps.filters.Find(ctx, in.Name); err == nil {
		f, err := deps.filters.Update(ctx, existing.ID, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated filter %q (%s)\n", f.Name, f.ID)
		return nil
	}

	f, err := deps.filters.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved filter %q (%s)\n", f.Name, f.ID)
	return nil
}
