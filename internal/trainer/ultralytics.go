package trainer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// UltralyticsTrainer drives the `yolo` command line tool.
type UltralyticsTrainer struct {
	// Binary defaults to "yolo".
	Binary string
	Device string
	// Output receives the tool's combined output while it runs.
	Output    io.Writer
	ExtraArgs []string
}

func (u *UltralyticsTrainer) binary() string {
	if u.Binary == "" {
		return "yolo"
	}
	return u.Binary
}

// Args builds the `yolo detect train` argument list for req.
func (u *UltralyticsTrainer) Args(req Request) []string {
	args := []string{
		"detect", "train",
		"model=" + req.DescriptionPath,
		"data=" + req.Dataset,
		"project=" + req.Project,
		"name=" + req.RunName(),
		"exist_ok=True",
	}
	if req.Epochs > 0 {
		args = append(args, "epochs="+strconv.Itoa(req.Epochs))
	}
	if req.ImageSize > 0 {
		args = append(args, "imgsz="+strconv.Itoa(req.ImageSize))
	}
	if req.Batch > 0 {
		args = append(args, "batch="+strconv.Itoa(req.Batch))
	}
	if req.Optimizer != "" {
		args = append(args, "optimizer="+req.Optimizer)
	}
	if u.Device != "" {
		args = append(args, "device="+u.Device)
	}
	return append(args, u.ExtraArgs...)
}

func (u *UltralyticsTrainer) Train(ctx context.Context, req Request) (model.Metrics, error) {
	args := u.Args(req)
	logf(req.RunName(), "exec %s %s", u.binary(), strings.Join(args, " "))

	var captured bytes.Buffer
	out := io.Writer(&captured)
	if u.Output != nil {
		out = io.MultiWriter(&captured, u.Output)
	}
	cmd := exec.CommandContext(ctx, u.binary(), args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return model.Metrics{}, ctx.Err()
		}
		return model.Metrics{}, fmt.Errorf("%s: %w: %s", u.binary(), err, lastLine(captured.String()))
	}

	return CollectRun(req.RunDir(), captured.String())
}

// CollectRun gathers metrics from a finished Ultralytics run directory and
// the captured console output.
func CollectRun(runDir, output string) (model.Metrics, error) {
	m, err := ReadResultsCSV(filepath.Join(runDir, "results.csv"))
	if err != nil {
		return model.Metrics{}, err
	}

	params, gflops, ok := ParseSummary(output)
	if !ok {
		return model.Metrics{}, errors.New("model summary not found in trainer output")
	}
	m.ParamsM = float64(params) / 1e6
	m.GFLOPs = gflops

	weights := filepath.Join(runDir, "weights", "best.pt")
	info, err := os.Stat(weights)
	if err != nil {
		return model.Metrics{}, fmt.Errorf("trained weights: %w", err)
	}
	m.SizeKB = float64(info.Size()) / 1000
	m.WeightsPath = weights
	logf(filepath.Base(runDir), "params=%.3fM gflops=%.2f size=%.1fKB", m.ParamsM, m.GFLOPs, m.SizeKB)
	return m, nil
}

const (
	colPrecision = "metrics/precision(B)"
	colRecall    = "metrics/recall(B)"
	colMAP50     = "metrics/mAP50(B)"
	colMAP5095   = "metrics/mAP50-95(B)"
)

// ReadResultsCSV reads precision, recall and mAP50 from the epoch row
// best.pt was saved at: the first row with the highest fitness,
// 0.1*mAP50 + 0.9*mAP50-95. Without a mAP50-95 column the fitness is mAP50.
// Headers and cells may be space padded.
func ReadResultsCSV(path string) (model.Metrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Metrics{}, fmt.Errorf("training results: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return model.Metrics{}, fmt.Errorf("training results %s: %w", path, err)
	}
	if len(rows) < 2 {
		return model.Metrics{}, fmt.Errorf("training results %s: no epochs recorded", path)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}
	value := func(row []string, name string) (float64, error) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return 0, fmt.Errorf("training results %s: missing column %q", path, name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("training results %s: column %q: %w", path, name, err)
		}
		return v, nil
	}
	_, hasMAP5095 := cols[colMAP5095]

	var (
		best        model.Metrics
		bestFitness = math.Inf(-1)
	)
	for _, row := range rows[1:] {
		var m model.Metrics
		if m.Precision, err = value(row, colPrecision); err != nil {
			return model.Metrics{}, err
		}
		if m.Recall, err = value(row, colRecall); err != nil {
			return model.Metrics{}, err
		}
		if m.MAP50, err = value(row, colMAP50); err != nil {
			return model.Metrics{}, err
		}
		fitness := m.MAP50
		if hasMAP5095 {
			m5095, err := value(row, colMAP5095)
			if err != nil {
				return model.Metrics{}, err
			}
			fitness = 0.1*m.MAP50 + 0.9*m5095
		}
		if fitness > bestFitness {
			best, bestFitness = m, fitness
		}
	}
	return best, nil
}

var summaryRe = regexp.MustCompile(`summary[^:\n]*:\s*[\d,]+ layers,\s*([\d,]+) parameters,\s*[\d,]+ gradients(?:,\s*([\d.]+) GFLOPs)?`)

// ParseSummary extracts the parameter count and GFLOPs from the first
// model summary line, the unfused model as built from the description.
func ParseSummary(output string) (params int64, gflops float64, ok bool) {
	m := summaryRe.FindStringSubmatch(output)
	if m == nil {
		return 0, 0, false
	}
	params, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if m[2] != "" {
		gflops, _ = strconv.ParseFloat(m[2], 64)
	}
	return params, gflops, true
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
