package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"exportdecl/internal/container"
	"exportdecl/normalization"

	"github.com/spf13/cobra"
)

var (
	runOutDir string
	runFormat string
	runRatio  float64
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "aggregate source files into a board summary report",
	Long: `Run the aggregation pipeline over the given manufacturer files and write the
summary table to --out. Files that cannot be parsed are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := normalization.ParseExportFormat(runFormat)
		if err != nil {
			return err
		}

		return withContainer(cmd.Context(), func(c *container.Container) error {
			pipeline := c.Pipeline
			if runRatio > 0 {
				pipeline = pipeline.With(normalization.WithGrossRatio(normalization.FixedGrossRatio(runRatio)))
			}

			res, err := pipeline.Run(cmd.Context(), args)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(runOutDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}
			out := filepath.Join(runOutDir, normalization.ReportFileName(time.Now(), format))
			if err := normalization.NewExporter().Export(out, format, res.Records); err != nil {
				return err
			}

			return printRunSummary(cmd, out, res)
		})
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOutDir, "out", "o", "reports", "output directory")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "excel", "report format: excel, csv, json")
	runCmd.Flags().Float64Var(&runRatio, "gross-ratio", 0, "fixed gross/net ratio for this run")
}

type runSummary struct {
	Output       string   `json:"output"`
	Records      int      `json:"records"`
	FilesOK      int      `json:"files_ok"`
	FilesFailed  []string `json:"files_failed,omitempty"`
	LookupErrors []string `json:"lookup_errors,omitempty"`
	RowsIngested int      `json:"rows_ingested"`
	RowsDropped  int      `json:"rows_dropped"`
	GrossRatio   float64  `json:"gross_ratio"`
	Duration     string   `json:"duration"`
}

func printRunSummary(cmd *cobra.Command, out string, res *normalization.Result) error {
	sum := runSummary{
		Output:       out,
		Records:      len(res.Records),
		FilesOK:      res.FilesOK,
		RowsIngested: res.RowsIngested,
		RowsDropped:  res.RowsDropped,
		GrossRatio:   res.GrossRatio,
		Duration:     res.Duration.String(),
	}
	for _, fe := range res.FileErrors {
		sum.FilesFailed = append(sum.FilesFailed, fe.Error())
	}
	for _, le := range res.LookupErrors {
		sum.LookupErrors = append(sum.LookupErrors, le.Error())
	}

	return printJSON(cmd, sum)
}
