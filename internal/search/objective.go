package search

import "github.com/idlab-discover/tinynas-cli/internal/model"

// Score weights mAP50 twice as much as precision and recall.
func Score(m model.Metrics) float64 {
	return (m.Precision + m.Recall + 2*m.MAP50) / 4
}

// Evaluate scores m and zeroes the score when a constraint is violated.
func Evaluate(m model.Metrics, c model.Constraints) (score float64, feasible bool) {
	if !c.Allows(m) {
		return 0, false
	}
	return Score(m), true
}

// Objectives returns (score, size_kb, params_m); the first is maximized
// and the other two minimized.
func Objectives(score float64, m model.Metrics) [3]float64 {
	return [3]float64{score, m.SizeKB, m.ParamsM}
}
