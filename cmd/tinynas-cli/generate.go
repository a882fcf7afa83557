package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/search"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

var (
	generateNC           int
	generateStages       int
	generateChannels     []int
	generateInitChannels int
	generateScale        float64
	generateRepeats      []int
	generatePool         bool
	generateOutput       string
	generateForce        bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one architecture description from structural hyperparameters",
	Long: "Generate a layer-list description for one candidate detector. Give the channel progression with --channels, " +
		"or derive it from --init-channels and --scale the way the search does. Without --output the description is printed.",
	Example: "  tinynas-cli generate --stages 4 --channels 32,64,128,256,512 --repeats 1,2,2,1 --pool\n" +
		"  tinynas-cli generate --stages 5 --init-channels 32 --scale 1.5 --repeats 1,2,2,2 -o custom.yaml",
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	nc := viper.GetInt("generate.nc")
	stages := viper.GetInt("generate.stages")
	channels := viper.GetIntSlice("generate.channels")
	repeats := viper.GetIntSlice("generate.repeats")
	pool := viper.GetBool("generate.pool")
	output := strings.TrimSpace(viper.GetString("generate.output"))

	var spec topology.ArchitectureSpec
	if len(channels) == 0 {
		initChannels := viper.GetInt("generate.init-channels")
		scale := viper.GetFloat64("generate.scale")
		if initChannels <= 0 || scale <= 0 {
			return apperr.WithHint(apperr.User("no channel progression given"), "pass --channels, or --init-channels with --scale")
		}
		spec = search.Spec(model.Sample{
			Stages:       stages,
			InitChannels: initChannels,
			ChannelScale: scale,
			BlockRepeats: repeats,
			IncludePool:  pool,
		}, nc)
	} else {
		spec = topology.ArchitectureSpec{
			ClassCount:   nc,
			StageCount:   stages,
			ChannelSizes: channels,
			BlockRepeats: search.FitRepeats(repeats, stages),
			IncludePool:  pool,
		}
	}

	desc, err := topology.Generate(spec)
	if err != nil {
		if topology.IsInvalidSpec(err) {
			return apperr.WithHint(apperr.User(err.Error()), fmt.Sprintf("--channels needs --stages+1 entries; stages must be %d..%d", topology.MinStages, topology.MaxStages))
		}
		return err
	}
	content := desc.Render()

	if output == "" || output == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if viper.GetBool("generate.force") {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(output, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return apperr.WithHint(apperr.Userf("%s already exists", output), "use --force to overwrite")
		}
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatus("success", fmt.Sprintf("Wrote %s %s", ui.Highlight.Render(output),
		ui.Dim.Render(fmt.Sprintf("(%d backbone + %d head layers, taps %v)", len(desc.Backbone), len(desc.Head), desc.Taps)))))
	return nil
}

func init() {
	generateCmd.Flags().IntVar(&generateNC, "nc", 4, "Number of classes")
	generateCmd.Flags().IntVar(&generateStages, "stages", 4, "Number of backbone stages (3..5)")
	generateCmd.Flags().IntSliceVar(&generateChannels, "channels", nil, "Channel sizes, one per stage plus the stem (stages+1 values)")
	generateCmd.Flags().IntVar(&generateInitChannels, "init-channels", 32, "Initial channels when --channels is not given")
	generateCmd.Flags().Float64Var(&generateScale, "scale", 2.0, "Channel growth factor when --channels is not given")
	generateCmd.Flags().IntSliceVar(&generateRepeats, "repeats", []int{1, 2, 2, 2, 2}, "C2f repeats per stage; truncated or padded with the last value to --stages entries")
	generateCmd.Flags().BoolVar(&generatePool, "pool", false, "Append an SPPF pooling block to the backbone")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file (default: print to stdout)")
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "Overwrite an existing output file")

	viper.BindPFlag("generate.nc", generateCmd.Flags().Lookup("nc"))
	viper.BindPFlag("generate.stages", generateCmd.Flags().Lookup("stages"))
	viper.BindPFlag("generate.channels", generateCmd.Flags().Lookup("channels"))
	viper.BindPFlag("generate.init-channels", generateCmd.Flags().Lookup("init-channels"))
	viper.BindPFlag("generate.scale", generateCmd.Flags().Lookup("scale"))
	viper.BindPFlag("generate.repeats", generateCmd.Flags().Lookup("repeats"))
	viper.BindPFlag("generate.pool", generateCmd.Flags().Lookup("pool"))
	viper.BindPFlag("generate.output", generateCmd.Flags().Lookup("output"))
	viper.BindPFlag("generate.force", generateCmd.Flags().Lookup("force"))
}
