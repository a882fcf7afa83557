package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/store"
)

var (
	reportRunID      string
	reportSQLitePath string
	reportTopK       int
	reportOutput     string
	reportBOMDir     string
	reportBOMFormat  string
	reportBOMSpec    string
	reportLogLevel   string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-render the results of a stored search run",
	Long:  "Load a run from the SQLite trial store (the latest one unless --run is given) and print its ranking, Pareto front and summary.",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	level := strings.ToLower(strings.TrimSpace(viper.GetString("report.log-level")))
	if level == "" {
		level = "standard"
	}
	switch level {
	case "quiet", "standard", "debug":
	default:
		return apperr.Userf("invalid --log-level %q (expected quiet|standard|debug)", level)
	}
	if level == "debug" {
		enableDebugLogging(cmd.ErrOrStderr())
	}

	dbPath := viper.GetString("report.sqlite-path")
	if dbPath == "" {
		dbPath = viper.GetString("search.sqlite-path")
	}
	topK := viper.GetInt("report.top-k")
	if topK <= 0 {
		topK = viper.GetInt("search.top-k")
	}
	format := strings.ToLower(viper.GetString("report.bom-format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "xml" {
		return apperr.Userf("invalid --bom-format %q (expected json|xml)", format)
	}

	st := store.NewSQLiteStore(dbPath)
	ctx := cmd.Context()
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("open trial store %s: %w", dbPath, err)
	}
	defer st.Close()

	runID := strings.TrimSpace(viper.GetString("report.run"))
	var (
		run model.Run
		ok  bool
		err error
	)
	if runID != "" {
		run, ok, err = st.GetRun(ctx, runID)
	} else {
		run, ok, err = st.LatestRun(ctx)
	}
	if err != nil {
		return err
	}
	if !ok {
		if runID != "" {
			return apperr.WithHint(apperr.Userf("run %s not found in %s", runID, dbPath), "omit --run to use the latest run")
		}
		return apperr.WithHint(apperr.Userf("no runs stored in %s", dbPath), "run `tinynas-cli search --store sqlite` first")
	}

	trials, err := st.ListTrials(ctx, run.ID)
	if err != nil {
		return err
	}
	return presentResults(cmd.OutOrStdout(), run, trials, resultOptions{
		TopK:       topK,
		ReportPath: viper.GetString("report.output"),
		BOMDir:     viper.GetString("report.bom-dir"),
		BOMFormat:  format,
		BOMSpec:    viper.GetString("report.bom-spec"),
		Quiet:      level == "quiet",
	})
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "Run ID (default: latest run)")
	reportCmd.Flags().StringVar(&reportSQLitePath, "sqlite-path", "", "SQLite database file (default: search.sqlite-path)")
	reportCmd.Flags().IntVar(&reportTopK, "top-k", 0, "Number of best trials to print (default: search.top-k)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Also write the ranked report file")
	reportCmd.Flags().StringVar(&reportBOMDir, "bom-dir", "", "Write CycloneDX ML-BOMs for the top trials into this directory")
	reportCmd.Flags().StringVar(&reportBOMFormat, "bom-format", "", "ML-BOM format: json|xml")
	reportCmd.Flags().StringVar(&reportBOMSpec, "bom-spec", "", "CycloneDX spec version for ML-BOMs")
	reportCmd.Flags().StringVar(&reportLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	viper.BindPFlag("report.run", reportCmd.Flags().Lookup("run"))
	viper.BindPFlag("report.sqlite-path", reportCmd.Flags().Lookup("sqlite-path"))
	viper.BindPFlag("report.top-k", reportCmd.Flags().Lookup("top-k"))
	viper.BindPFlag("report.output", reportCmd.Flags().Lookup("output"))
	viper.BindPFlag("report.bom-dir", reportCmd.Flags().Lookup("bom-dir"))
	viper.BindPFlag("report.bom-format", reportCmd.Flags().Lookup("bom-format"))
	viper.BindPFlag("report.bom-spec", reportCmd.Flags().Lookup("bom-spec"))
	viper.BindPFlag("report.log-level", reportCmd.Flags().Lookup("log-level"))
}
