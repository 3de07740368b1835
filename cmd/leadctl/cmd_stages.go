package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xavierca1/leadflow/internal/entity"
)

var (
	stageColor       string
	stageDescription string
	stageIcon        string
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Manage pipeline stages",
	Long: `Stages are the board columns. A stage id is the lead status stored by the
backend, so removing a stage leaves its leads off the board until it is
added back.`,
}

var stagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stages in board order",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCOLOR\tDESCRIPTION")
		for _, s := range deps.stages.Stages() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Color, s.Description)
		}
		return w.Flush()
	},
}

var stagesAddCmd = &cobra.Command{
	Use:   "add [id] [name]",
	Short: "Append a stage",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		stage := entity.Stage{
			ID:          args[0],
			Name:        strings.Join(args[1:], " "),
			Color:       stageColor,
			Description: stageDescription,
			Icon:        stageIcon,
		}
		if err := deps.stages.Add(ctx, stage); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added stage %s\n", stage.ID)
		return nil
	},
}

var stagesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := deps.stages.Remove(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed stage %s\n", args[0])
		return nil
	},
}

var stagesReorderCmd = &cobra.Command{
	Use:   "reorder [id...]",
	Short: "Set the column order; every stage id must be listed once",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := deps.stages.Reorder(ctx, args); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Stages reordered")
		return nil
	},
}

func init() {
	stagesAddCmd.Flags().StringVar(&stageColor, "color", "#64748b", "Column color (hex)")
	stagesAddCmd.Flags().StringVar(&stageDescription, "description", "", "Stage description")
	stagesAddCmd.Flags().StringVar(&stageIcon, "icon", "", "Icon name")

	stagesCmd.AddCommand(stagesListCmd, stagesAddCmd, stagesRemoveCmd, stagesReorderCmd)
}
