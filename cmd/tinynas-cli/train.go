package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
	bomio "github.com/idlab-discover/tinynas-cli/internal/io"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
	"github.com/idlab-discover/tinynas-cli/internal/trainer"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

var (
	trainModel           string
	trainDescriptionsDir string
	trainDataset         string
	trainImgsz           int
	trainOptimizer       string
	trainEpochs          int
	trainBatch           int
	trainProject         string
	trainName            string
	trainTrainer         string
	trainYes             bool
	trainInteractive     bool
	trainLogLevel        string
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train one architecture description to convergence",
	Long: "Fully train a description found by the search. --model accepts a name such as model_trial_10 (looked up in " +
		"--descriptions-dir) or a path. Use --interactive to pick from the generated descriptions.",
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateTrain(); err != nil {
		return err
	}
	tc := cfg.Train
	quiet := tc.LogLevel == "quiet"
	out := cmd.OutOrStdout()

	var trainerOutput io.Writer = out
	if quiet {
		trainerOutput = nil
	}
	if tc.LogLevel == "debug" {
		enableDebugLogging(cmd.ErrOrStderr())
	}

	interactive := viper.GetBool("train.interactive")
	if interactive && cmd.Flags().Changed("model") {
		return apperr.User("--interactive cannot be used with --model")
	}

	var path string
	if interactive {
		path, err = selectDescription(tc.DescriptionsDir)
	} else {
		path, err = bomio.ResolveDescription(tc.DescriptionsDir, tc.Model)
		if err != nil && apperr.IsUser(err) && !cmd.Flags().Changed("model") && isTerminal() {
			// The default model does not exist here; offer the picker instead.
			path, err = selectDescription(tc.DescriptionsDir)
		}
	}
	if err != nil {
		return err
	}

	desc, err := bomio.ReadDescription(path)
	if err == nil {
		err = topology.CheckReferences(desc.Layers())
	}
	if err != nil {
		return apperr.WithHint(apperr.Userf("cannot use %s: %v", path, err), "run `tinynas-cli validate` on the file")
	}

	req := trainer.Request{
		DescriptionPath: path,
		Dataset:         tc.Dataset,
		Epochs:          tc.Epochs,
		ImageSize:       tc.ImageSize,
		Batch:           tc.Batch,
		Optimizer:       tc.Optimizer,
		Project:         tc.Project,
		Name:            tc.Name,
	}

	if !viper.GetBool("train.yes") && !quiet && isTerminal() {
		if err := ui.ConfirmTraining(out, ui.TrainingPlan{
			Description: path,
			Dataset:     req.Dataset,
			Trainer:     tc.Trainer,
			Epochs:      req.Epochs,
			ImageSize:   req.ImageSize,
			Batch:       req.Batch,
			Optimizer:   req.Optimizer,
			RunDir:      req.RunDir(),
		}); err != nil {
			return err
		}
	}

	tr, err := trainer.New(tc.Trainer, cfg.Trainer.Options(trainerOutput))
	if err != nil {
		return apperr.User(err.Error())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var spinner *ui.SimpleSpinner
	if !quiet && tc.Trainer == "dummy" {
		spinner = ui.NewSimpleSpinner(out, "Training "+req.RunName())
		spinner.Start()
	}
	metrics, err := tr.Train(ctx, req)
	if spinner != nil {
		spinner.Stop(err == nil, "Trained "+req.RunName())
	}
	if err != nil {
		if ctx.Err() != nil {
			return apperr.ErrCancelled
		}
		return fmt.Errorf("train %s: %w", req.RunName(), err)
	}

	if quiet {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(ui.SectionHeader.Render("Training finished: " + req.RunName()))
	sb.WriteString("\n")
	sb.WriteString(ui.FormatKeyValue("Precision", fmt.Sprintf("%.4f", metrics.Precision)))
	sb.WriteString("\n")
	sb.WriteString(ui.FormatKeyValue("Recall", fmt.Sprintf("%.4f", metrics.Recall)))
	sb.WriteString("\n")
	sb.WriteString(ui.FormatKeyValue("mAP50", fmt.Sprintf("%.4f", metrics.MAP50)))
	sb.WriteString("\n")
	sb.WriteString(ui.FormatKeyValue("Footprint", fmt.Sprintf("%.3f M params · %.2f GFLOPs · %.1f KB", metrics.ParamsM, metrics.GFLOPs, metrics.SizeKB)))
	if metrics.WeightsPath != "" {
		sb.WriteString("\n")
		sb.WriteString(ui.FormatKeyValue("Weights", metrics.WeightsPath))
	}
	fmt.Fprintln(out, ui.SuccessBox.Render(sb.String()))
	return nil
}

// selectDescription lists the generated descriptions and runs the picker.
func selectDescription(dir string) (string, error) {
	files, err := bomio.ListDescriptions(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", apperr.WithHint(apperr.Userf("no descriptions in %s", dir), "run `tinynas-cli search` first or pass --model")
	}
	items := make([]ui.DescriptionItem, 0, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		item := ui.DescriptionItem{Path: f.Path, Name: f.Name, ModTime: f.ModTime}
		if d, err := bomio.ReadDescription(f.Path); err == nil {
			item.Layers = len(d.Backbone) + len(d.Head)
			if det, ok := d.Detect(); ok {
				item.Detect = fmt.Sprint(det.From)
			}
		}
		items = append(items, item)
	}
	return ui.RunDescriptionSelector(items)
}

func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func init() {
	trainCmd.Flags().StringVarP(&trainModel, "model", "m", "", "Description name (model_trial_10) or path")
	trainCmd.Flags().StringVar(&trainDescriptionsDir, "descriptions-dir", "", "Directory searched for description names")
	trainCmd.Flags().StringVar(&trainDataset, "dataset", "", "Dataset config passed to the trainer")
	trainCmd.Flags().IntVar(&trainImgsz, "imgsz", 0, "Training image size")
	trainCmd.Flags().StringVar(&trainOptimizer, "optimizer", "", "Optimizer name")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "Training epochs")
	trainCmd.Flags().IntVar(&trainBatch, "batch", 0, "Batch size (-1 lets the trainer choose)")
	trainCmd.Flags().StringVar(&trainProject, "project", "", "Trainer output directory")
	trainCmd.Flags().StringVar(&trainName, "name", "", "Run name (default <model>_<dataset>)")
	trainCmd.Flags().StringVar(&trainTrainer, "trainer", "", "Trainer backend: ultralytics|command|dummy")
	trainCmd.Flags().BoolVarP(&trainYes, "yes", "y", false, "Skip the confirmation prompt")
	trainCmd.Flags().BoolVarP(&trainInteractive, "interactive", "i", false, "Pick the description interactively")
	trainCmd.Flags().StringVar(&trainLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	viper.BindPFlag("train.model", trainCmd.Flags().Lookup("model"))
	viper.BindPFlag("train.descriptions-dir", trainCmd.Flags().Lookup("descriptions-dir"))
	viper.BindPFlag("train.dataset", trainCmd.Flags().Lookup("dataset"))
	viper.BindPFlag("train.imgsz", trainCmd.Flags().Lookup("imgsz"))
	viper.BindPFlag("train.optimizer", trainCmd.Flags().Lookup("optimizer"))
	viper.BindPFlag("train.epochs", trainCmd.Flags().Lookup("epochs"))
	viper.BindPFlag("train.batch", trainCmd.Flags().Lookup("batch"))
	viper.BindPFlag("train.project", trainCmd.Flags().Lookup("project"))
	viper.BindPFlag("train.name", trainCmd.Flags().Lookup("name"))
	viper.BindPFlag("train.trainer", trainCmd.Flags().Lookup("trainer"))
	viper.BindPFlag("train.yes", trainCmd.Flags().Lookup("yes"))
	viper.BindPFlag("train.interactive", trainCmd.Flags().Lookup("interactive"))
	viper.BindPFlag("train.log-level", trainCmd.Flags().Lookup("log-level"))
}
