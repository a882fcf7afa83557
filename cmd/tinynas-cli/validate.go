package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
	bomio "github.com/idlab-discover/tinynas-cli/internal/io"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
	"github.com/idlab-discover/tinynas-cli/internal/validator"
)

var (
	validateInput           string
	validateDescriptionsDir string
	validateStrict          bool
	validateLogLevel        string
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [description]",
	Short: "Check an architecture description before training it",
	Long:  "Parse a layer-list description and check its references, detection head and scales block. The description may be a path or a name such as model_trial_10.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	level := strings.ToLower(strings.TrimSpace(viper.GetString("validate.log-level")))
	if level == "" {
		level = "standard"
	}
	switch level {
	case "quiet", "standard", "debug":
	default:
		return apperr.Userf("invalid --log-level %q (expected quiet|standard|debug)", level)
	}
	if level == "debug" {
		validator.SetLogger(cmd.ErrOrStderr())
	}

	input := viper.GetString("validate.input")
	if len(args) == 1 {
		input = args[0]
	}
	if strings.TrimSpace(input) == "" {
		return apperr.WithHint(apperr.User("no description given"), "pass a path or a name such as model_trial_10")
	}
	dir := viper.GetString("validate.descriptions-dir")
	if dir == "" {
		dir = viper.GetString("search.descriptions-dir")
	}
	path, err := bomio.ResolveDescription(dir, input)
	if err != nil {
		return err
	}

	_, res, err := validator.ValidateFile(path, viper.GetBool("validate.strict"))
	if err != nil {
		return apperr.Userf("%v", err)
	}

	if level == "quiet" {
		fmt.Fprintln(cmd.OutOrStdout(), validator.FormatSummary(res))
	} else {
		ui.NewValidationUI(cmd.OutOrStdout(), false).PrintReport(validator.UIReport(path, res))
	}
	if level == "debug" {
		validator.PrintReport(res)
	}
	if !res.Valid {
		return fmt.Errorf("%s is not a valid description", path)
	}
	return nil
}

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "Description path or name")
	validateCmd.Flags().StringVar(&validateDescriptionsDir, "descriptions-dir", "", "Directory searched for description names")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat a missing or incomplete scales block as an error")
	validateCmd.Flags().StringVar(&validateLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	viper.BindPFlag("validate.input", validateCmd.Flags().Lookup("input"))
	viper.BindPFlag("validate.descriptions-dir", validateCmd.Flags().Lookup("descriptions-dir"))
	viper.BindPFlag("validate.strict", validateCmd.Flags().Lookup("strict"))
	viper.BindPFlag("validate.log-level", validateCmd.Flags().Lookup("log-level"))
}
