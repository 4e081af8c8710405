package cli

import (
	"context"
	"fmt"

	"exportdecl/internal/config"
	"exportdecl/internal/container"
	"exportdecl/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string
)

// rootCmd корневая команда
var rootCmd = &cobra.Command{
	Use:     "declctl",
	Short:   "Board summary declarations tool",
	Version: container.Version,
	Long: `Offline tool for the customs board summary pipeline: aggregate manufacturer
files into a summary report and maintain the lookup registries.`,
	Example: `  # Aggregate two files into an Excel report
  $ declctl run --out reports maker_a.xlsx maker_b.csv

  # Load registries from the seed file
  $ declctl seed --file configs/seed.yaml

  # Rebuild box weight/size registry from a directory of Excel files
  $ declctl rebuild-mappings uploads/`,
	SilenceUsage: true,
}

// ExecuteContext выполняет корневую команду
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(rebuildMappingsCmd)
	rootCmd.AddCommand(cleanupMappingsCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig конфигурация и консольный логгер для команд
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withContainer поднимает контейнер на время команды
func withContainer(ctx context.Context, fn func(c *container.Container) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer c.Shutdown(context.WithoutCancel(ctx))

	return fn(c)
}
