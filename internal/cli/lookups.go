package cli

import (
	"encoding/json"
	"fmt"

	"exportdecl/database"
	"exportdecl/internal/container"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "load lookup registries from the seed file",
	Long: `Apply the seed YAML to the lookup registries. Brands are added or updated,
known names and box weight/size entries are added when missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(c *container.Container) error {
			path := seedFile
			if path == "" {
				path = c.Config.SeedFile
			}
			seed, err := database.LoadSeedFile(path)
			if err != nil {
				return err
			}
			report, err := c.LookupDB.Seed(cmd.Context(), seed)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		})
	},
}

var rebuildMappingsCmd = &cobra.Command{
	Use:   "rebuild-mappings DIR",
	Short: "rebuild box weight/size registry from Excel files",
	Long: `Clear the box weight/size registry and fill it from every .xlsx/.xls file in DIR.
Files are processed in name order; for a repeated product name the first entry wins.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(c *container.Container) error {
			report, err := c.RebuildProductMappings(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(report.Duplicates) > 0 {
				c.Logger.Warn("Duplicate product names skipped", zap.Int("count", len(report.Duplicates)))
			}
			return printJSON(cmd, report)
		})
	},
}

var cleanupMappingsCmd = &cobra.Command{
	Use:   "cleanup-mappings",
	Short: "delete box weight/size entries without weight and size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(c *container.Container) error {
			n, err := c.MappingService.CleanupEmptyProductMappings(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d empty product mappings\n", n)
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply lookup database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		// миграции применяются при открытии
		db, err := database.NewLookupDB(cfg.Database.Path, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		version, dirty, err := database.MigrationVersion(db.GetDB())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "seed YAML (default: seed_file from config)")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
