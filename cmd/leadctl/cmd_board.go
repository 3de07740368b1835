package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/tui"
	"github.com/xavierca1/leadflow/internal/usecase"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive pipeline board",
	Long: `Shows leads as a Kanban board, one column per stage.

Pick a card up with space, move it with the arrow keys and drop it with
enter. The card moves at once and the change is saved in the background;
if saving fails the card goes back where it was.`,
	RunE: runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
	if !deps.session.Authenticated() {
		return errors.New("not logged in, run `leadctl login`")
	}

	notifier := &tui.ProgramNotifier{}
	board := usecase.NewBoard(deps.client, deps.stages, notifier, logger)
	board.SyncTimeout = deps.cfg.SyncTimeout
	board.PageSize = deps.cfg.LeadsPageSize
	deps.stages.OnChange(func(s []entity.Stage) { board.Repartition(s) })

	if deps.cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(deps.cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("stage change events disabled", zap.Error(err))
		} else {
			defer rabbitMQ.Close()
			board.Events = queue.NewProducer(rabbitMQ.Ch)
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(tui.NewModel(ctx, board), tea.WithAltScreen(), tea.WithContext(ctx))
	notifier.Attach(p)
	_, err := p.Run()
	notifier.Attach(nil)
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	return waitForSyncs(cmd, board)
}

// waitForSyncs lets queued moves finish after the board closes.
func waitForSyncs(cmd *cobra.Command, board *usecase.Board) error {
	done := make(chan struct{})
	go func() {
		board.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(100 * time.Millisecond):
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Saving pending changes...")

	select {
	case <-done:
		return nil
	case <-time.After(deps.cfg.SyncTimeout + time.Second):
		return errors.New("some changes were not confirmed by the backend")
	}
}
