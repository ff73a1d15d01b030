package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snipd/internal/config"
	"snipd/internal/logging"
)

// skipConfig marks commands that run without loading the configuration.
const skipConfig = "skip-config"

var (
	configPath string
	logLevel   string

	loader *config.Loader
	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "snipd",
	Short: "snipd is a text expansion daemon",
	Long: `snipd watches keyboard and mouse input system-wide, shows whether
expansions are enabled in the notification area and renders match
templates built from extensions (random, echo, date, shell).`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}

func resolveConfigPath() string {
	if configPath != "" {
		return config.ExpandPath(configPath)
	}
	if found := config.FindConfigFile(); found != "" {
		return found
	}
	return config.ConfigPath()
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfig] != "" {
		return nil
	}

	loader = config.NewLoader(resolveConfigPath())
	c, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", loader.Path(), err)
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}

	lc, err := c.LoggerConfig()
	if err != nil {
		return err
	}
	l, err := logging.New(lc)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.SetDefault(l)

	cfg, logger = c, l
	return nil
}

func teardown(*cobra.Command, []string) error {
	if loader != nil {
		loader.Close()
	}
	if logger != nil {
		return logger.Close()
	}
	return nil
}
