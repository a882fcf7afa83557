// Package report ranks the trials of a run and renders the results.
package report

import (
	"cmp"
	"slices"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// Rank returns the completed trials by descending score. Equal scores keep
// trial-number order.
func Rank(trials []model.Trial) []model.Trial {
	out := make([]model.Trial, 0, len(trials))
	for _, t := range trials {
		if t.Completed() {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Trial) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return out
}

// TopK returns at most k trials of Rank(trials).
func TopK(trials []model.Trial, k int) []model.Trial {
	ranked := Rank(trials)
	if k < 0 {
		k = 0
	}
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Dominates reports whether a is at least as good as b on every objective
// (score up, size down, params down) and strictly better on one.
func Dominates(a, b model.Trial) bool {
	av, bv := a.Values, b.Values
	if av[0] < bv[0] || av[1] > bv[1] || av[2] > bv[2] {
		return false
	}
	return av[0] > bv[0] || av[1] < bv[1] || av[2] < bv[2]
}

// ParetoFront returns the completed trials no other completed trial
// dominates, ranked by score.
func ParetoFront(trials []model.Trial) []model.Trial {
	ranked := Rank(trials)
	var front []model.Trial
	for i, t := range ranked {
		dominated := false
		for j, o := range ranked {
			if i != j && Dominates(o, t) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, t)
		}
	}
	return front
}
