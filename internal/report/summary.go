package report

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// Summary aggregates the trials of a run.
type Summary struct {
	Trials    int
	Completed int
	Failed    int
	Feasible  int

	BestTrial int
	Best      float64
	Mean      float64
	StdDev    float64
	Median    float64

	MeanSizeKB  float64
	MeanParamsM float64
}

// Summarize computes run statistics over the completed trials. StdDev is
// the sample standard deviation and is 0 below two trials. BestTrial is -1
// when nothing completed.
func Summarize(trials []model.Trial) Summary {
	s := Summary{Trials: len(trials), BestTrial: -1}
	var scores, sizes, params []float64
	for _, t := range trials {
		switch t.Status {
		case model.TrialFailed:
			s.Failed++
			continue
		case model.TrialComplete:
		default:
			continue
		}
		s.Completed++
		if t.Feasible {
			s.Feasible++
		}
		scores = append(scores, t.Score)
		sizes = append(sizes, t.Metrics.SizeKB)
		params = append(params, t.Metrics.ParamsM)
	}
	if len(scores) == 0 {
		return s
	}

	if ranked := Rank(trials); len(ranked) > 0 {
		s.BestTrial = ranked[0].Number
		s.Best = ranked[0].Score
	}
	if len(scores) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(scores, nil)
	} else {
		s.Mean = scores[0]
	}
	sorted := slices.Clone(scores)
	slices.Sort(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.MeanSizeKB = stat.Mean(sizes, nil)
	s.MeanParamsM = stat.Mean(params, nil)
	return s
}
