package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"snipd/internal/daemon"
	"snipd/internal/detect"
	"snipd/internal/match"
	"snipd/internal/metrics"
	"snipd/internal/notify"
	"snipd/internal/store"
	"snipd/internal/ui"
)

var (
	runHeadless bool
	runNoWatch  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the expansion daemon",
	Long: `Starts input capture and the notification area icon. Press the
toggle key twice quickly, or use the tray menu, to enable or disable
expansions. Match files and the configuration are reloaded on change.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run without a tray icon")
	runCmd.Flags().BoolVar(&runNoWatch, "no-watch", false, "do not reload match files on change")
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	set, err := match.LoadDir(cfg.Render.MatchDir)
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}

	var history *store.Store
	if cfg.History.Enabled {
		history, err = store.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer history.Close()
	}

	notifier := notify.New(cfg.Notify.Enabled, logger.WithComponent("notify"))
	defer notifier.Close()

	if cfg.Tray.ShowIcon && cfg.Tray.Icons["normal"] == "" {
		logger.Warn("no tray icon images configured, running without a tray icon")
		cfg.Tray.ShowIcon = false
	}
	var backend ui.Backend
	if runHeadless || !cfg.Tray.ShowIcon {
		backend = ui.NewHeadless(ui.DefaultQueueSize)
	} else {
		backend = ui.NewSystray(logger.WithComponent("ui"))
	}

	source := detect.New(detect.Options{
		Devices:  cfg.Input.Devices,
		LockPath: cfg.Input.LockPath,
		Logger:   logger.WithComponent("detect"),
	})

	d, err := daemon.New(daemon.Options{
		Config:       cfg,
		Source:       source,
		Backend:      backend,
		Matches:      set,
		History:      history,
		Notifier:     notifier,
		Metrics:      metrics.New(),
		Logger:       logger.WithComponent("daemon"),
		WatchMatches: !runNoWatch,
	})
	if err != nil {
		return err
	}

	// cobra runs commands on the main goroutine, which the ui package
	// locked to the main thread.
	if err := d.Initialize(); err != nil {
		return err
	}

	loader.OnChange(d.ApplyConfig)
	if err := loader.Watch(); err != nil {
		logger.Warn("configuration hot reload unavailable", "error", err)
	} else {
		go func() {
			for err := range loader.Errors() {
				logger.Warn("configuration reload rejected", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.PruneHistory(ctx)
	logger.Info("snipd started", "version", Version, "backend", backend.Name(), "config", loader.Path())
	return d.Run(ctx)
}
