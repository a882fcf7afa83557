package trainer

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"time"

	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
)

// footprintImageSize is the input size Ultralytics reports GFLOPs at.
const footprintImageSize = 640

// DummyTrainer produces deterministic metrics without training. The
// footprint is estimated from the description; quality grows with
// capacity and epochs and carries a jitter derived from the file content.
type DummyTrainer struct {
	// Delay simulates training time.
	Delay time.Duration
}

func (d *DummyTrainer) Train(ctx context.Context, req Request) (model.Metrics, error) {
	data, err := os.ReadFile(req.DescriptionPath)
	if err != nil {
		return model.Metrics{}, err
	}
	desc, err := topology.Parse(data)
	if err != nil {
		return model.Metrics{}, fmt.Errorf("%s: %w", req.DescriptionPath, err)
	}
	fp, err := Estimate(desc, footprintImageSize)
	if err != nil {
		return model.Metrics{}, fmt.Errorf("%s: %w", req.DescriptionPath, err)
	}

	if d.Delay > 0 {
		select {
		case <-ctx.Done():
			return model.Metrics{}, ctx.Err()
		case <-time.After(d.Delay):
		}
	} else if err := ctx.Err(); err != nil {
		return model.Metrics{}, err
	}

	h := fnv.New64a()
	h.Write(data)
	seed := h.Sum64()
	jitter := func(shift uint) float64 {
		return float64((seed>>shift)%1000)/1000 - 0.5
	}

	capacity := 1 - math.Exp(-float64(fp.Params)/4e5)
	training := 1 - 0.5*math.Exp(-float64(max(req.Epochs, 1))/30)
	precision := clamp01((0.25 + 0.5*capacity + 0.1*jitter(0)) * training)
	recall := clamp01((0.2 + 0.5*capacity + 0.1*jitter(20)) * training)
	map50 := clamp01((precision+recall)/2 - 0.05 + 0.04*jitter(40))

	m := model.Metrics{
		Precision: precision,
		Recall:    recall,
		MAP50:     map50,
		ParamsM:   float64(fp.Params) / 1e6,
		GFLOPs:    math.Round(fp.GFLOPs*10) / 10,
		// Half-precision weights plus checkpoint overhead.
		SizeKB: float64(fp.Params)*2/1000 + 30,
	}
	logf(req.RunName(), "dummy params=%d gflops=%.1f", fp.Params, m.GFLOPs)
	return m, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
