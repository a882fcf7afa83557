package trainer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"text/template"

	"github.com/tidwall/gjson"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// MetricPaths are gjson paths into the JSON document a command prints.
type MetricPaths struct {
	Precision string `mapstructure:"precision"`
	Recall    string `mapstructure:"recall"`
	MAP50     string `mapstructure:"map50"`
	ParamsM   string `mapstructure:"params_m"`
	GFLOPs    string `mapstructure:"gflops"`
	SizeKB    string `mapstructure:"size_kb"`
	Weights   string `mapstructure:"weights"`
}

// DefaultMetricPaths matches a flat document such as
// {"precision":0.5,"recall":0.4,"map50":0.45,"params_m":0.3,...}.
func DefaultMetricPaths() MetricPaths {
	return MetricPaths{
		Precision: "precision",
		Recall:    "recall",
		MAP50:     "map50",
		ParamsM:   "params_m",
		GFLOPs:    "gflops",
		SizeKB:    "size_kb",
		Weights:   "weights",
	}
}

func (p MetricPaths) withDefaults() MetricPaths {
	d := DefaultMetricPaths()
	set := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	set(&p.Precision, d.Precision)
	set(&p.Recall, d.Recall)
	set(&p.MAP50, d.MAP50)
	set(&p.ParamsM, d.ParamsM)
	set(&p.GFLOPs, d.GFLOPs)
	set(&p.SizeKB, d.SizeKB)
	set(&p.Weights, d.Weights)
	return p
}

// CommandTrainer runs an arbitrary program that prints its metrics as JSON
// on stdout. Each argument is a text/template over the Request, with
// {{.RunName}} and {{.RunDir}} available.
type CommandTrainer struct {
	Command string
	Args    []string
	Paths   MetricPaths
	// Output receives the program's stderr.
	Output io.Writer
	Env    []string
}

type commandData struct {
	Request
	RunName string
	RunDir  string
}

// Expand renders the argument templates for req.
func (c *CommandTrainer) Expand(req Request) ([]string, error) {
	data := commandData{Request: req, RunName: req.RunName(), RunDir: req.RunDir()}
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		tmpl, err := template.New("arg").Option("missingkey=error").Parse(a)
		if err != nil {
			return nil, fmt.Errorf("trainer argument %d: %w", i, err)
		}
		var b strings.Builder
		if err := tmpl.Execute(&b, data); err != nil {
			return nil, fmt.Errorf("trainer argument %d: %w", i, err)
		}
		out[i] = b.String()
	}
	return out, nil
}

func (c *CommandTrainer) Train(ctx context.Context, req Request) (model.Metrics, error) {
	if c.Command == "" {
		return model.Metrics{}, fmt.Errorf("command trainer: no command configured")
	}
	args, err := c.Expand(req)
	if err != nil {
		return model.Metrics{}, err
	}
	logf(req.RunName(), "exec %s %s", c.Command, strings.Join(args, " "))

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard
	if c.Output != nil {
		cmd.Stderr = c.Output
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return model.Metrics{}, ctx.Err()
		}
		return model.Metrics{}, fmt.Errorf("%s: %w", c.Command, err)
	}
	return ParseMetricsJSON(stdout.Bytes(), c.Paths)
}

// ParseMetricsJSON extracts metrics from out. When out as a whole is not
// JSON, the last line that is a JSON document is used. Precision, recall
// and mAP50 are required.
func ParseMetricsJSON(out []byte, paths MetricPaths) (model.Metrics, error) {
	doc, ok := findDocument(out)
	if !ok {
		return model.Metrics{}, fmt.Errorf("no JSON metrics document in trainer output")
	}
	paths = paths.withDefaults()

	required := func(path string) (float64, error) {
		r := gjson.GetBytes(doc, path)
		if !r.Exists() {
			return 0, fmt.Errorf("metrics document has no %q", path)
		}
		return r.Float(), nil
	}

	var (
		m   model.Metrics
		err error
	)
	if m.Precision, err = required(paths.Precision); err != nil {
		return model.Metrics{}, err
	}
	if m.Recall, err = required(paths.Recall); err != nil {
		return model.Metrics{}, err
	}
	if m.MAP50, err = required(paths.MAP50); err != nil {
		return model.Metrics{}, err
	}
	m.ParamsM = gjson.GetBytes(doc, paths.ParamsM).Float()
	m.GFLOPs = gjson.GetBytes(doc, paths.GFLOPs).Float()
	m.SizeKB = gjson.GetBytes(doc, paths.SizeKB).Float()
	m.WeightsPath = gjson.GetBytes(doc, paths.Weights).String()
	return m, nil
}

func findDocument(out []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) > 0 && gjson.ValidBytes(trimmed) && trimmed[0] == '{' {
		return trimmed, true
	}
	lines := bytes.Split(trimmed, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' && gjson.ValidBytes(line) {
			return line, true
		}
	}
	return nil, false
}
