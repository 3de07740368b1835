package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/integration/crmapi"
	"github.com/xavierca1/leadflow/internal/infra/notify"
	"github.com/xavierca1/leadflow/internal/infra/session"
	"github.com/xavierca1/leadflow/internal/infra/storage"
	"github.com/xavierca1/leadflow/internal/logging"
	"github.com/xavierca1/leadflow/internal/usecase"
)

var (
	// Global flags
	verbose   bool
	configDir string
	timeout   time.Duration

	logger *zap.Logger
	deps   *app
)

// app holds the components shared by every subcommand.
type app struct {
	cfg     *config.Config
	store   storage.Store
	session *session.Session
	client  *crmapi.Client
	stages  *usecase.StageRegistry
	filters *usecase.SavedFilterService
}

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Work the sales pipeline from the terminal",
	Long: `leadctl talks to the CRM backend with the session stored by "leadctl login".

Run "leadctl board" for the interactive Kanban board, or use the leads,
filters and stages commands for scripting.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}

		// The board owns the terminal, so logs go to a file unless asked.
		if verbose && cmd.Name() != "board" {
			logger, err = logging.New("debug", true)
		} else {
			logger, err = logging.NewFile(logPath(cfg), cfg.LogLevel)
		}
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		store, err := storage.Open(ctx, cfg.DatabaseURL, cfg.StorePath, logger)
		if err != nil {
			return err
		}
		sess := session.New(store)
		if err := sess.Init(ctx); err != nil {
			store.Close()
			return err
		}
		stages := usecase.NewStageRegistry(store, logger)
		if err := stages.Load(ctx); err != nil {
			store.Close()
			return err
		}

		deps = &app{
			cfg:     cfg,
			store:   store,
			session: sess,
			client:  crmapi.NewClient(cfg.CRMAPIURL, sess, logger),
			stages:  stages,
			filters: usecase.NewSavedFilterService(store, logger),
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if deps != nil {
			_ = deps.store.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr at debug level")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding leadflow.yaml")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for backend and storage calls")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(filtersCmd)
	rootCmd.AddCommand(stagesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.StorePath), "leadctl.log")
}

// commandContext bounds a one-shot command by --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func cliNotifier() usecase.Notifier {
	return notify.Logger{L: logger}
}
