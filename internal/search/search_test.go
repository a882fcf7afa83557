package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/store"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
	"github.com/idlab-discover/tinynas-cli/internal/trainer"
)

func TestSpecFromSample(t *testing.T) {
	tests := []struct {
		name     string
		sample   model.Sample
		channels []int
		repeats  []int
	}{
		{
			name:     "three stages truncates repeats",
			sample:   model.Sample{Stages: 3, InitChannels: 32, ChannelScale: 2.0, BlockRepeats: []int{1, 2, 2, 2}},
			channels: []int{32, 64, 128, 256},
			repeats:  []int{1, 2, 2},
		},
		{
			name:     "fractional scale truncates channels",
			sample:   model.Sample{Stages: 4, InitChannels: 48, ChannelScale: 1.5, BlockRepeats: []int{2, 4, 4, 2}},
			channels: []int{48, 72, 108, 162, 243},
			repeats:  []int{2, 4, 4, 2},
		},
		{
			name:     "five stages pads repeats",
			sample:   model.Sample{Stages: 5, InitChannels: 64, ChannelScale: 1.5, BlockRepeats: []int{3, 6, 6, 3}, IncludePool: true},
			channels: []int{64, 96, 144, 216, 324, 486},
			repeats:  []int{3, 6, 6, 3, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Spec(tt.sample, 4)
			if spec.StageCount != tt.sample.Stages || spec.ClassCount != 4 || spec.IncludePool != tt.sample.IncludePool {
				t.Fatalf("spec header = %+v", spec)
			}
			if !reflect.DeepEqual(spec.ChannelSizes, tt.channels) {
				t.Fatalf("channels = %v, want %v", spec.ChannelSizes, tt.channels)
			}
			if !reflect.DeepEqual(spec.BlockRepeats, tt.repeats) {
				t.Fatalf("repeats = %v, want %v", spec.BlockRepeats, tt.repeats)
			}
			if err := spec.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestFitRepeats(t *testing.T) {
	tests := []struct {
		profile []int
		stages  int
		want    []int
	}{
		{[]int{1, 2, 2, 2}, 3, []int{1, 2, 2}},
		{[]int{1, 2, 2, 2}, 5, []int{1, 2, 2, 2, 2}},
		{[]int{3}, 4, []int{3, 3, 3, 3}},
		{nil, 2, []int{0, 0}},
		{[]int{1}, 0, nil},
	}
	for i, tt := range tests {
		if got := FitRepeats(tt.profile, tt.stages); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("case %d: FitRepeats(%v, %d) = %v, want %v", i, tt.profile, tt.stages, got, tt.want)
		}
	}
}

func TestDefaultSpaceAlwaysGenerates(t *testing.T) {
	space := DefaultSpace()
	if err := space.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, st := range space.Stages {
		for _, ic := range space.InitChannels {
			for _, sc := range space.ChannelScales {
				for _, rep := range space.BlockRepeats {
					for _, pool := range space.IncludePool {
						s := model.Sample{Stages: st, InitChannels: ic, ChannelScale: sc, BlockRepeats: rep, IncludePool: pool}
						d, err := topology.Generate(Spec(s, 4))
						if err != nil {
							t.Fatalf("Generate(%s): %v", s, err)
						}
						if err := topology.CheckReferences(d.Layers()); err != nil {
							t.Fatalf("CheckReferences(%s): %v", s, err)
						}
					}
				}
			}
		}
	}
}

func TestSpaceValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Space)
	}{
		{"no stages", func(s *Space) { s.Stages = nil }},
		{"stage out of range", func(s *Space) { s.Stages = []int{2} }},
		{"no init channels", func(s *Space) { s.InitChannels = nil }},
		{"negative init channels", func(s *Space) { s.InitChannels = []int{-8} }},
		{"zero scale", func(s *Space) { s.ChannelScales = []float64{0} }},
		{"empty repeat profile", func(s *Space) { s.BlockRepeats = [][]int{{}} }},
		{"no pool choice", func(s *Space) { s.IncludePool = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSpace()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRandomSamplerSeeded(t *testing.T) {
	a := NewRandomSampler(DefaultSpace(), 42)
	b := NewRandomSampler(DefaultSpace(), 42)
	for i := 0; i < 20; i++ {
		sa, sb := a.Next(i), b.Next(i)
		if !reflect.DeepEqual(sa, sb) {
			t.Fatalf("sample %d differs: %v vs %v", i, sa, sb)
		}
		if sa.Stages < 3 || sa.Stages > 5 {
			t.Fatalf("sample %d stages = %d", i, sa.Stages)
		}
	}
}

func TestRandomSamplerClonesRepeats(t *testing.T) {
	space := Space{Stages: []int{3}, InitChannels: []int{32}, ChannelScales: []float64{2}, BlockRepeats: [][]int{{1, 2, 2, 2}}, IncludePool: []bool{true}}
	s := NewRandomSampler(space, 1).Next(0)
	s.BlockRepeats[0] = 99
	if space.BlockRepeats[0][0] != 1 {
		t.Fatal("sampler shares the space's repeat slice")
	}
}

func TestEvaluate(t *testing.T) {
	c := model.DefaultConstraints()
	m := model.Metrics{Precision: 0.6, Recall: 0.4, MAP50: 0.5, SizeKB: 800, ParamsM: 0.3, GFLOPs: 1}
	score, ok := Evaluate(m, c)
	if !ok || score != 0.5 {
		t.Fatalf("Evaluate = (%v, %v), want (0.5, true)", score, ok)
	}
	m.SizeKB = 901
	score, ok = Evaluate(m, c)
	if ok || score != 0 {
		t.Fatalf("Evaluate over budget = (%v, %v), want (0, false)", score, ok)
	}
	if got := Objectives(0.5, model.Metrics{SizeKB: 800, ParamsM: 0.3}); got != [3]float64{0.5, 800, 0.3} {
		t.Fatalf("Objectives = %v", got)
	}
}

// trainerFunc adapts a function to trainer.Trainer.
type trainerFunc func(ctx context.Context, req trainer.Request) (model.Metrics, error)

func (f trainerFunc) Train(ctx context.Context, req trainer.Request) (model.Metrics, error) {
	return f(ctx, req)
}

func newDriver(t *testing.T, tr trainer.Trainer, trials, parallel int) (*Driver, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	if err := st.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return &Driver{
		Settings: Settings{
			Trials:          trials,
			Parallel:        parallel,
			ClassCount:      4,
			DescriptionsDir: filepath.Join(t.TempDir(), "generated_yamls"),
			Dataset:         "dataset.yaml",
			Epochs:          3,
			ImageSize:       96,
			Project:         "bo_runs",
			TrainerName:     "dummy",
		},
		Constraints: model.DefaultConstraints(),
		Sampler:     NewRandomSampler(DefaultSpace(), 7),
		Trainer:     tr,
		Store:       st,
		NewRunID:    func() string { return "run-test" },
	}, st
}

func TestDriverRun_DummyTrainer(t *testing.T) {
	d, st := newDriver(t, &trainer.DummyTrainer{}, 5, 2)

	var (
		mu     sync.Mutex
		events = map[ProgressEventType]int{}
	)
	d.OnProgress = func(evt ProgressEvent) {
		mu.Lock()
		events[evt.Type]++
		mu.Unlock()
	}

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Run.Status != model.RunComplete || res.Run.ID != "run-test" {
		t.Fatalf("run = %+v", res.Run)
	}
	if len(res.Trials) != 5 {
		t.Fatalf("len(trials) = %d, want 5", len(res.Trials))
	}
	for i, tr := range res.Trials {
		if tr.Number != i {
			t.Fatalf("trials[%d].Number = %d", i, tr.Number)
		}
		if tr.Status != model.TrialComplete {
			t.Fatalf("trial %d status = %s (%s)", i, tr.Status, tr.Error)
		}
		want := filepath.Join(d.Settings.DescriptionsDir, "model_trial_"+string(rune('0'+i))+".yaml")
		if tr.DescriptionPath != want {
			t.Fatalf("trial %d path = %s, want %s", i, tr.DescriptionPath, want)
		}
		if _, err := os.Stat(tr.DescriptionPath); err != nil {
			t.Fatalf("description not written: %v", err)
		}
		score, feasible := Evaluate(tr.Metrics, d.Constraints)
		if tr.Score != score || tr.Feasible != feasible || tr.Values[0] != score {
			t.Fatalf("trial %d score = %v/%v, want %v/%v", i, tr.Score, tr.Feasible, score, feasible)
		}
	}
	if events[EventTrialStart] != 5 || events[EventTrialComplete] != 5 || events[EventDescriptionWritten] != 5 {
		t.Fatalf("events = %v", events)
	}

	stored, err := st.ListTrials(context.Background(), "run-test")
	if err != nil || len(stored) != 5 {
		t.Fatalf("stored trials = %d, err=%v", len(stored), err)
	}
	run, ok, _ := st.GetRun(context.Background(), "run-test")
	if !ok || run.Status != model.RunComplete || run.Finished.IsZero() {
		t.Fatalf("stored run = %+v", run)
	}
}

func TestDriverRun_ContinuesNumbering(t *testing.T) {
	d, _ := newDriver(t, &trainer.DummyTrainer{}, 2, 1)
	if err := os.MkdirAll(d.Settings.DescriptionsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(d.Settings.DescriptionsDir, "model_trial_3.yaml")
	if err := os.WriteFile(existing, []byte("keep me\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Trials[0].Number != 4 || res.Trials[1].Number != 5 {
		t.Fatalf("numbers = %d, %d; want 4, 5", res.Trials[0].Number, res.Trials[1].Number)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "keep me\n" {
		t.Fatal("existing description was overwritten")
	}
}

func TestDriverRun_TrainerFailureKeepsGoing(t *testing.T) {
	tr := trainerFunc(func(_ context.Context, req trainer.Request) (model.Metrics, error) {
		if req.Name == "trial_1" {
			return model.Metrics{}, errors.New("out of memory")
		}
		return model.Metrics{Precision: 0.5, Recall: 0.5, MAP50: 0.5, SizeKB: 100, ParamsM: 0.1, GFLOPs: 0.5}, nil
	})
	d, _ := newDriver(t, tr, 3, 1)

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Run.Status != model.RunComplete {
		t.Fatalf("run status = %s", res.Run.Status)
	}
	if res.Trials[1].Status != model.TrialFailed || res.Trials[1].Error == "" {
		t.Fatalf("trial 1 = %+v", res.Trials[1])
	}
	if res.Trials[0].Score != 0.5 || res.Trials[2].Score != 0.5 {
		t.Fatalf("scores = %v, %v", res.Trials[0].Score, res.Trials[2].Score)
	}
}

func TestDriverRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := trainerFunc(func(ctx context.Context, req trainer.Request) (model.Metrics, error) {
		cancel()
		<-ctx.Done()
		return model.Metrics{}, ctx.Err()
	})
	d, st := newDriver(t, tr, 10, 1)

	res, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil || res.Run.Status != model.RunCancelled {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Trials) >= 10 {
		t.Fatalf("dispatched %d trials after cancellation", len(res.Trials))
	}
	run, ok, _ := st.GetRun(context.Background(), "run-test")
	if !ok || run.Status != model.RunCancelled {
		t.Fatalf("stored run = %+v", run)
	}
}

func TestDriverRun_QueuedTrialsSkippedAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := trainerFunc(func(ctx context.Context, req trainer.Request) (model.Metrics, error) {
		cancel()
		return model.Metrics{}, ctx.Err()
	})
	d, _ := newDriver(t, tr, 5, 1)

	res, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(res.Trials) != 1 {
		t.Fatalf("trials = %d, want 1", len(res.Trials))
	}
	for _, tr := range res.Trials {
		if tr.Status == model.TrialRunning {
			t.Fatalf("trial %d left running", tr.Number)
		}
	}
	files, err := filepath.Glob(filepath.Join(d.Settings.DescriptionsDir, "*.yaml"))
	if err != nil || len(files) != 1 {
		t.Fatalf("descriptions on disk = %v (%v), want 1", files, err)
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) SaveTrial(context.Context, model.Trial) error {
	return errors.New("disk full")
}

func TestDriverRun_StoreFailureAborts(t *testing.T) {
	d, st := newDriver(t, &trainer.DummyTrainer{}, 3, 1)
	d.Store = failingStore{Store: st}

	res, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected store error")
	}
	if res.Run.Status != model.RunFailed {
		t.Fatalf("run status = %s", res.Run.Status)
	}
}

func TestDriverRun_Validation(t *testing.T) {
	d, _ := newDriver(t, &trainer.DummyTrainer{}, 0, 1)
	if _, err := d.Run(context.Background()); err == nil {
		t.Fatal("expected error for zero trials")
	}
	d.Settings.Trials = 1
	d.Trainer = nil
	if _, err := d.Run(context.Background()); err == nil {
		t.Fatal("expected error without trainer")
	}
}

func TestDriverRun_Timestamps(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	d, _ := newDriver(t, &trainer.DummyTrainer{}, 1, 1)
	d.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tr := res.Trials[0]
	if !tr.Finished.After(tr.Started) || !res.Run.Finished.After(res.Run.Started) {
		t.Fatalf("timestamps not ordered: trial %v..%v run %v..%v", tr.Started, tr.Finished, res.Run.Started, res.Run.Finished)
	}
}
