package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
	"github.com/idlab-discover/tinynas-cli/internal/search"
	"github.com/idlab-discover/tinynas-cli/internal/store"
	"github.com/idlab-discover/tinynas-cli/internal/trainer"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

var (
	searchTrials          int
	searchEpochs          int
	searchImgsz           int
	searchNC              int
	searchBatch           int
	searchTopK            int
	searchParallel        int
	searchSeed            uint64
	searchTrainer         string
	searchStore           string
	searchSQLitePath      string
	searchDataset         string
	searchDescriptionsDir string
	searchProject         string
	searchReport          string
	searchBOMDir          string
	searchBOMFormat       string
	searchBOMSpec         string
	searchLogLevel        string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the architecture space and rank the candidates",
	Long: "Sample candidate architectures, write a description for each, train it through the configured trainer and score it " +
		"against the size, parameter and compute budgets. The ranked results are printed and written to the report file.",
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateSearch(); err != nil {
		return err
	}
	sc := cfg.Search
	quiet := sc.LogLevel == "quiet"
	out := cmd.OutOrStdout()

	var trainerOutput io.Writer
	if sc.LogLevel == "debug" {
		enableDebugLogging(cmd.ErrOrStderr())
		trainerOutput = cmd.ErrOrStderr()
	}

	seed := sc.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	tr, err := trainer.New(sc.Trainer, cfg.Trainer.Options(trainerOutput))
	if err != nil {
		return apperr.User(err.Error())
	}

	st, err := store.NewStore(sc.Store, sc.SQLitePath)
	if err != nil {
		return apperr.User(err.Error())
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("open %s store: %w", sc.Store, err)
	}
	defer store.CloseIfSupported(st)

	runID := uuid.NewString()
	searchUI := ui.NewSearchUI(out, quiet)
	searchUI.Start(runID, sc.Trials)

	driver := &search.Driver{
		Settings: search.Settings{
			Trials:          sc.Trials,
			Parallel:        sc.Parallel,
			ClassCount:      sc.ClassCount,
			DescriptionsDir: sc.DescriptionsDir,
			Dataset:         sc.Dataset,
			Epochs:          sc.Epochs,
			ImageSize:       sc.ImageSize,
			Batch:           sc.Batch,
			Optimizer:       sc.Optimizer,
			Project:         sc.Project,
			TrainerName:     sc.Trainer,
			Seed:            seed,
		},
		Constraints: cfg.Constraints,
		Sampler:     search.NewRandomSampler(cfg.Space, seed),
		Trainer:     tr,
		Store:       st,
		NewRunID:    func() string { return runID },
		OnProgress: func(evt search.ProgressEvent) {
			switch evt.Type {
			case search.EventTrialStart:
				searchUI.TrialStarted(evt.Trial, evt.Sample.String())
			case search.EventDescriptionWritten:
				searchUI.TrialTraining(evt.Trial, evt.Path)
			case search.EventTrialComplete:
				searchUI.TrialDone(evt.Trial, evt.Score, evt.Feasible)
			case search.EventTrialFailed:
				searchUI.TrialFailed(evt.Trial, evt.Error)
			}
		},
	}

	res, runErr := driver.Run(ctx)
	searchUI.Stop()
	if res == nil {
		return runErr
	}

	cancelled := errors.Is(runErr, context.Canceled)
	if runErr != nil && !cancelled {
		return runErr
	}
	if cancelled {
		searchUI.LogStep("warning", fmt.Sprintf("Search interrupted after %d trial(s); reporting partial results", len(res.Trials)))
	}
	if !quiet && sc.Store == "sqlite" {
		searchUI.LogStep("info", fmt.Sprintf("Run %s stored in %s (seed %d)", res.Run.ID, sc.SQLitePath, seed))
	}

	if err := presentResults(out, res.Run, res.Trials, resultOptions{
		TopK:       sc.TopK,
		ReportPath: sc.Report,
		BOMDir:     sc.BOMDir,
		BOMFormat:  sc.BOMFormat,
		BOMSpec:    sc.BOMSpec,
		Quiet:      quiet,
	}); err != nil {
		return err
	}
	if cancelled {
		return apperr.ErrCancelled
	}
	return nil
}

func init() {
	searchCmd.Flags().IntVar(&searchTrials, "trials", 0, "Number of trials to run")
	searchCmd.Flags().IntVar(&searchEpochs, "epochs", 0, "Training epochs per trial")
	searchCmd.Flags().IntVar(&searchImgsz, "imgsz", 0, "Training image size")
	searchCmd.Flags().IntVar(&searchNC, "nc", 0, "Number of classes")
	searchCmd.Flags().IntVar(&searchBatch, "batch", 0, "Training batch size")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "Number of best trials to print (and describe with --bom-dir)")
	searchCmd.Flags().IntVar(&searchParallel, "parallel", 0, "Trials trained concurrently")
	searchCmd.Flags().Uint64Var(&searchSeed, "seed", 0, "Sampler seed (0 picks one)")
	searchCmd.Flags().StringVar(&searchTrainer, "trainer", "", "Trainer backend: ultralytics|command|dummy")
	searchCmd.Flags().StringVar(&searchStore, "store", "", "Trial store: memory|sqlite")
	searchCmd.Flags().StringVar(&searchSQLitePath, "sqlite-path", "", "SQLite database file for --store sqlite")
	searchCmd.Flags().StringVar(&searchDataset, "dataset", "", "Dataset config passed to the trainer")
	searchCmd.Flags().StringVar(&searchDescriptionsDir, "descriptions-dir", "", "Directory receiving model_trial_<n>.yaml files")
	searchCmd.Flags().StringVar(&searchProject, "project", "", "Trainer output directory")
	searchCmd.Flags().StringVar(&searchReport, "report", "", "Ranked report file")
	searchCmd.Flags().StringVar(&searchBOMDir, "bom-dir", "", "Write CycloneDX ML-BOMs for the top trials into this directory")
	searchCmd.Flags().StringVar(&searchBOMFormat, "bom-format", "", "ML-BOM format: json|xml")
	searchCmd.Flags().StringVar(&searchBOMSpec, "bom-spec", "", "CycloneDX spec version for ML-BOMs (e.g., 1.5, 1.6)")
	searchCmd.Flags().StringVar(&searchLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	viper.BindPFlag("search.trials", searchCmd.Flags().Lookup("trials"))
	viper.BindPFlag("search.epochs", searchCmd.Flags().Lookup("epochs"))
	viper.BindPFlag("search.imgsz", searchCmd.Flags().Lookup("imgsz"))
	viper.BindPFlag("search.nc", searchCmd.Flags().Lookup("nc"))
	viper.BindPFlag("search.batch", searchCmd.Flags().Lookup("batch"))
	viper.BindPFlag("search.top-k", searchCmd.Flags().Lookup("top-k"))
	viper.BindPFlag("search.parallel", searchCmd.Flags().Lookup("parallel"))
	viper.BindPFlag("search.seed", searchCmd.Flags().Lookup("seed"))
	viper.BindPFlag("search.trainer", searchCmd.Flags().Lookup("trainer"))
	viper.BindPFlag("search.store", searchCmd.Flags().Lookup("store"))
	viper.BindPFlag("search.sqlite-path", searchCmd.Flags().Lookup("sqlite-path"))
	viper.BindPFlag("search.dataset", searchCmd.Flags().Lookup("dataset"))
	viper.BindPFlag("search.descriptions-dir", searchCmd.Flags().Lookup("descriptions-dir"))
	viper.BindPFlag("search.project", searchCmd.Flags().Lookup("project"))
	viper.BindPFlag("search.report", searchCmd.Flags().Lookup("report"))
	viper.BindPFlag("search.bom-dir", searchCmd.Flags().Lookup("bom-dir"))
	viper.BindPFlag("search.bom-format", searchCmd.Flags().Lookup("bom-format"))
	viper.BindPFlag("search.bom-spec", searchCmd.Flags().Lookup("bom-spec"))
	viper.BindPFlag("search.log-level", searchCmd.Flags().Lookup("log-level"))
}
