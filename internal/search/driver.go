package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	bomio "github.com/idlab-discover/tinynas-cli/internal/io"
	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/store"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
	"github.com/idlab-discover/tinynas-cli/internal/trainer"
)

// Settings are the per-run knobs of the driver.
type Settings struct {
	Trials     int
	Parallel   int
	ClassCount int

	// DescriptionsDir receives model_trial_<n>.yaml for every trial.
	DescriptionsDir string

	Dataset   string
	Epochs    int
	ImageSize int
	Batch     int
	Optimizer string
	// Project is the trainer's output directory; each trial trains under
	// <Project>/trial_<n>.
	Project string

	// Recorded with the run.
	TrainerName string
	Seed        uint64
}

// Driver runs one search study.
type Driver struct {
	Settings    Settings
	Constraints model.Constraints
	Sampler     Sampler
	Trainer     trainer.Trainer
	Store       store.Store
	OnProgress  ProgressCallback

	// Now and NewRunID default to time.Now and uuid.NewString.
	Now      func() time.Time
	NewRunID func() string
}

// Result is the outcome of Run: the run record and every dispatched trial
// ordered by number.
type Result struct {
	Run    model.Run
	Trials []model.Trial
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *Driver) progress(evt ProgressEvent) {
	if d.OnProgress != nil {
		d.OnProgress(evt)
	}
}

func (d *Driver) validate() error {
	switch {
	case d.Settings.Trials <= 0:
		return fmt.Errorf("search: trials must be positive, got %d", d.Settings.Trials)
	case d.Settings.ClassCount <= 0:
		return fmt.Errorf("search: class count must be positive, got %d", d.Settings.ClassCount)
	case d.Settings.DescriptionsDir == "":
		return errors.New("search: no descriptions directory")
	case d.Sampler == nil:
		return errors.New("search: no sampler")
	case d.Trainer == nil:
		return errors.New("search: no trainer")
	case d.Store == nil:
		return errors.New("search: no store")
	}
	return nil
}

// Run samples, generates, trains and scores Settings.Trials candidates.
// Trial numbers continue after the descriptions already on disk and are
// assigned before dispatch. A failing trainer marks its trial failed
// without stopping the run; a failing store aborts it. When ctx is
// cancelled no further trials are dispatched and ctx.Err() is returned
// along with the partial result.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	s := d.Settings
	parallel := max(s.Parallel, 1)

	first, err := bomio.NextTrialNumber(s.DescriptionsDir)
	if err != nil {
		return nil, fmt.Errorf("scan descriptions: %w", err)
	}

	newID := d.NewRunID
	if newID == nil {
		newID = uuid.NewString
	}
	run := model.Run{
		VersionedRecord: store.Stamp(),
		ID:              newID(),
		Config: model.RunConfig{
			Trials:      s.Trials,
			Epochs:      s.Epochs,
			ImageSize:   s.ImageSize,
			ClassCount:  s.ClassCount,
			Dataset:     s.Dataset,
			Trainer:     s.TrainerName,
			Seed:        s.Seed,
			Parallel:    parallel,
			Constraints: d.Constraints,
		},
		Status:  model.RunRunning,
		Started: d.now(),
	}
	if err := d.Store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	logf("-", "run %s: %d trial(s) from #%d, parallel=%d", run.ID, s.Trials, first, parallel)

	var (
		mu     sync.Mutex
		trials []model.Trial
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < s.Trials; i++ {
		if gctx.Err() != nil {
			break
		}
		number := first + i
		sample := d.Sampler.Next(number)
		g.Go(func() error {
			// Go may block on the limit until after cancellation.
			if gctx.Err() != nil {
				return nil
			}
			t, err := d.runTrial(gctx, run.ID, number, sample)
			mu.Lock()
			trials = append(trials, t)
			mu.Unlock()
			return err
		})
	}
	runErr := g.Wait()

	slices.SortFunc(trials, func(a, b model.Trial) int { return cmp.Compare(a.Number, b.Number) })
	switch {
	case runErr != nil && ctx.Err() == nil:
		run.Status = model.RunFailed
	case ctx.Err() != nil:
		run.Status = model.RunCancelled
		runErr = ctx.Err()
	default:
		run.Status = model.RunComplete
	}
	run.Finished = d.now()
	if err := d.Store.SaveRun(context.WithoutCancel(ctx), run); err != nil && runErr == nil {
		runErr = fmt.Errorf("save run: %w", err)
	}
	logf("-", "run %s %s after %d trial(s)", run.ID, run.Status, len(trials))
	return &Result{Run: run, Trials: trials}, runErr
}

// runTrial evaluates one candidate. The returned error is reserved for
// store failures; every other problem is recorded on the trial.
func (d *Driver) runTrial(ctx context.Context, runID string, number int, sample model.Sample) (model.Trial, error) {
	s := d.Settings
	subject := strconv.Itoa(number)
	t := model.Trial{
		VersionedRecord: store.Stamp(),
		RunID:           runID,
		Number:          number,
		Params:          sample,
		Spec:            Spec(sample, s.ClassCount),
		Status:          model.TrialRunning,
		Started:         d.now(),
	}
	d.progress(ProgressEvent{Type: EventTrialStart, Trial: number, Total: s.Trials, Sample: sample})
	logf(subject, "sampled %s", sample)

	fail := func(err error) (model.Trial, error) {
		t.Status = model.TrialFailed
		t.Error = err.Error()
		t.Finished = d.now()
		logf(subject, "failed: %v", err)
		d.progress(ProgressEvent{Type: EventTrialFailed, Trial: number, Total: s.Trials, Sample: sample, Path: t.DescriptionPath, Error: err})
		if serr := d.Store.SaveTrial(context.WithoutCancel(ctx), t); serr != nil {
			return t, fmt.Errorf("save trial %d: %w", number, serr)
		}
		return t, nil
	}

	desc, err := topology.Generate(t.Spec)
	if err != nil {
		return fail(err)
	}
	path, err := bomio.WriteDescription(s.DescriptionsDir, number, desc.Render())
	if err != nil {
		return fail(err)
	}
	t.DescriptionPath = path
	d.progress(ProgressEvent{Type: EventDescriptionWritten, Trial: number, Total: s.Trials, Sample: sample, Path: path})
	if err := d.Store.SaveTrial(ctx, t); err != nil {
		return t, fmt.Errorf("save trial %d: %w", number, err)
	}

	metrics, err := d.Trainer.Train(ctx, trainer.Request{
		DescriptionPath: path,
		Dataset:         s.Dataset,
		Epochs:          s.Epochs,
		ImageSize:       s.ImageSize,
		Batch:           s.Batch,
		Optimizer:       s.Optimizer,
		Project:         s.Project,
		Name:            "trial_" + subject,
	})
	if err != nil {
		return fail(fmt.Errorf("train: %w", err))
	}

	t.Metrics = metrics
	t.Score, t.Feasible = Evaluate(metrics, d.Constraints)
	t.Values = Objectives(t.Score, metrics)
	t.Status = model.TrialComplete
	t.Finished = d.now()
	logf(subject, "score=%.4f feasible=%t size=%.1fKB params=%.3fM gflops=%.2f",
		t.Score, t.Feasible, metrics.SizeKB, metrics.ParamsM, metrics.GFLOPs)

	if err := d.Store.SaveTrial(context.WithoutCancel(ctx), t); err != nil {
		return t, fmt.Errorf("save trial %d: %w", number, err)
	}
	d.progress(ProgressEvent{Type: EventTrialComplete, Trial: number, Total: s.Trials, Sample: sample, Path: path, Score: t.Score, Feasible: t.Feasible})
	return t, nil
}

