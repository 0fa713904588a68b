package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ilyasfoo/lockdown/internal/config"
	"github.com/ilyasfoo/lockdown/internal/logging"
	"github.com/ilyasfoo/lockdown/internal/metrics"
	"github.com/ilyasfoo/lockdown/internal/pipeline"
	"github.com/ilyasfoo/lockdown/internal/sink"
	"github.com/ilyasfoo/lockdown/internal/source"
	"github.com/ilyasfoo/lockdown/internal/store"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

var (
	cfgPath string
	verbose bool
	once    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "lockdown-loader",
	Short:         "Publish lockdown and travel restriction data from the tracker workbook",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load the workbook and publish every artifact",
	Long: `Reads the reference list and every territory sheet, then writes the
per-territory documents, the datafile, the totals and the world map to the
configured sinks.

Without --once the load repeats on the configured schedule, and on workbook
changes when watch is enabled, while /metrics and /healthz are served.`,
	RunE: runLoader,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "lockdown-loader", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "/config.yml", "path to YAML config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	runCmd.Flags().BoolVar(&once, "once", false, "run a single load then exit")

	rootCmd.AddCommand(runCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runLoader(cmd *cobra.Command, args []string) error {
	logger.Info("lockdown-loader starting", zap.String("version", Version))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if cfg.StatePath != "" {
		st, err := store.LoadState(cfg.StatePath)
		if err != nil {
			logger.Warn("load state", zap.Error(err))
		} else if st.RunID != "" {
			logger.Info("previous load",
				zap.String("run_id", st.RunID),
				zap.Time("finished_at", st.FinishedAt),
				zap.Int("territories", st.Territories),
				zap.Int("entries", st.Entries))
		}
	}

	src, err := source.NewFromConfig(cfg.Source)
	if err != nil {
		return fmt.Errorf("build source: %w", err)
	}
	logger.Info("configured source", zap.String("source", src.Name()))

	m := metrics.New()
	out, err := sink.NewFromConfig(cfg.Sinks, cfg.Publish, m.ObserveArtifact)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("close sinks", zap.Error(err))
		}
	}()

	loader, err := pipeline.New(cfg, src, out, m, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if once {
		_, err := loader.Run(ctx)
		return err
	}

	var watchPath string
	if cfg.Watch {
		watchPath = cfg.Source.XLSX.Path
	}
	sched, err := pipeline.NewScheduler(loader, cfg.Schedule, watchPath, logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.ListenAddress != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.ListenAddress,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", zap.String("addr", cfg.Metrics.ListenAddress))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// first load right away, then on schedule
	if _, err := loader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("initial load failed, waiting for next trigger")
	}
	return sched.Run(ctx)
}
