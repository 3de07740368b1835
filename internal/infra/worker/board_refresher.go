package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher is satisfied by *usecase.Board.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// BoardRefresher refetches the board on a fixed interval so changes made
// by other users show up without a manual reload.
type BoardRefresher struct {
	board        Refresher
	tickInterval time.Duration
	timeout      time.Duration
	logger       *zap.Logger
}

func NewBoardRefresher(board Refresher, interval, timeout time.Duration, logger *zap.Logger) *BoardRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BoardRefresher{board: board, tickInterval: interval, timeout: timeout, logger: logger}
}

// Start blocks until ctx is done. A non-positive interval disables it.
func (w *BoardRefresher) Start(ctx context.Context) {
	if w.tickInterval <= 0 {
		return
	}
	w.logger.Info("board refresher started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("board refresher stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *BoardRefresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	refreshed, err := w.board.Refresh(ctx)
	switch {
	case err != nil:
		w.logger.Warn("board refresh failed", zap.Error(err))
	case !refreshed:
		w.logger.Debug("board refresh skipped while moves are syncing")
	}
}
