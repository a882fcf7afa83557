package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// FileName is the default name of the ranked trial report.
const FileName = "sorted_trials_user_attrs.txt"

// WriteTrials writes one block per trial in the given order:
//
//	Trial#4:
//	  score     : 0.51
//	  ...
//	  yaml_path : generated_yamls/model_trial_4.yaml
//	----------------------------------------
func WriteTrials(w io.Writer, trials []model.Trial) error {
	bw := bufio.NewWriter(w)
	for _, t := range trials {
		fmt.Fprintf(bw, "Trial#%d:\n", t.Number)
		field(bw, "score", pyFloat(t.Score))
		field(bw, "precision", pyFloat(t.Metrics.Precision))
		field(bw, "recall", pyFloat(t.Metrics.Recall))
		field(bw, "map50", pyFloat(t.Metrics.MAP50))
		field(bw, "params_m", pyFloat(t.Metrics.ParamsM))
		field(bw, "gflops", pyFloat(t.Metrics.GFLOPs))
		field(bw, "size_kb", pyFloat(t.Metrics.SizeKB))
		field(bw, "yaml_path", t.DescriptionPath)
		bw.WriteString(strings.Repeat("-", 40) + "\n")
	}
	return bw.Flush()
}

// WriteFile ranks trials and writes the report to path.
func WriteFile(path string, trials []model.Trial) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTrials(f, Rank(trials)); err != nil {
		f.Close()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return f.Close()
}

func field(w *bufio.Writer, name, value string) {
	fmt.Fprintf(w, "  %-10s: %s\n", name, value)
}

// pyFloat formats v the way Python's repr does: shortest round-trip digits,
// always with a decimal point, exponent form below 1e-4.
func pyFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v != 0 && math.Abs(v) < 1e-4:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
