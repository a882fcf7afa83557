package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/tinynas-cli/internal/bom"
	"github.com/idlab-discover/tinynas-cli/internal/config"
	"github.com/idlab-discover/tinynas-cli/internal/search"
	"github.com/idlab-discover/tinynas-cli/internal/trainer"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
	"github.com/idlab-discover/tinynas-cli/internal/validator"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tinynas-cli",
	Short: "Search compact object detectors for microcontrollers",
	Long:  longDescription,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initUIAndBanner(cmd)
	},

	// When invoked without a subcommand, show help (with banner) instead of
	// printing a plain usage output.
	RunE: func(cmd *cobra.Command, args []string) error {
		initUIAndBanner(cmd)
		return cmd.Help()
	},
}

var cfgFile string
var noColor bool
var version string

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
	if v != "" && v != "dev" && bom.BuildVersion == "" {
		bom.BuildVersion = v
	}
}

// GetRootCmd returns the root command for use with fang
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tinynas-cli.yaml or ./config/defaults.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))

	config.SetDefaults(viper.GetViper())

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		initUIAndBanner(cmd)
		defaultHelp(cmd, args)
	})

	rootCmd.AddCommand(generateCmd, searchCmd, trainCmd, reportCmd, validateCmd)
}

func initConfig() {
	// TINYNAS_SEARCH_TRIALS -> search.trials
	viper.SetEnvPrefix("TINYNAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		cobra.CheckErr(viper.ReadInConfig())
		printConfigUsed()
		return
	}

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	viper.AddConfigPath("./config")

	viper.SetConfigName(".tinynas-cli")
	err = viper.ReadInConfig()

	notFound := &viper.ConfigFileNotFoundError{}
	if err != nil && errors.As(err, notFound) {
		viper.SetConfigName("defaults")
		err = viper.ReadInConfig()
	}

	switch {
	case err != nil && !errors.As(err, notFound):
		cobra.CheckErr(err)
	case err != nil:
		// The config file is optional.
	default:
		printConfigUsed()
	}
}

func printConfigUsed() {
	configMsg := ui.Dim.Render("Using config file: ") + ui.Secondary.Render(viper.ConfigFileUsed())
	fmt.Fprintln(os.Stderr, configMsg)
}

const longDescription = "Hardware-aware neural architecture search for tiny YOLO-style detectors. Generates layer-list descriptions, trains them through an external trainer and ranks the candidates that fit microcontroller budgets."

func initUIAndBanner(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	ui.Init(viper.GetBool("no-color") || noColorEnv)
	cmd.Root().Long = ui.RenderGradientBanner(ui.BannerASCII) + "\n" + longDescription
}

// loadConfig reads the effective configuration from flags, env and file.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// enableDebugLogging wires the opt-in package loggers to w.
func enableDebugLogging(w io.Writer) {
	search.SetLogger(w)
	trainer.SetLogger(w)
	bom.SetLogger(w)
	validator.SetLogger(w)
}
