// Package validator checks layer-list descriptions before they are handed
// to a trainer.
package validator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/idlab-discover/tinynas-cli/internal/io"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
)

// Result is the outcome of validating one description.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string

	BackboneLayers int
	HeadLayers     int
	// DetectInputs are the positions fused by the detection layer.
	DetectInputs []int
	Scales       int
}

// Validate checks d. Structural problems a trainer would reject are errors;
// unusual but loadable layouts are warnings. With strict set, an absent or
// incomplete scales block is an error as well.
func Validate(d *topology.Description, strict bool) Result {
	var r Result
	if d == nil {
		r.Errors = []string{"description is nil"}
		return r
	}
	r.BackboneLayers = len(d.Backbone)
	r.HeadLayers = len(d.Head)
	r.Scales = len(d.Scales)

	if d.ClassCount <= 0 {
		r.Errors = append(r.Errors, fmt.Sprintf("nc must be positive, got %d", d.ClassCount))
	}
	if len(d.Head) == 0 {
		r.Errors = append(r.Errors, "head is empty")
	}

	layers := d.Layers()
	if err := topology.CheckReferences(layers); err != nil {
		r.Errors = append(r.Errors, flatten(err)...)
	}

	for _, l := range layers {
		if l.Repeat <= 0 {
			r.Errors = append(r.Errors, fmt.Sprintf("layer %d: repeat must be positive, got %d", l.Index, l.Repeat))
		}
		switch l.Kind {
		case topology.KindOther:
			r.Warnings = append(r.Warnings, fmt.Sprintf("layer %d: unknown module %q", l.Index, l.Module))
		case topology.KindConcat:
			if len(l.From) < 2 {
				r.Warnings = append(r.Warnings, fmt.Sprintf("layer %d: concat with %d input(s)", l.Index, len(l.From)))
			}
		}
	}

	checkDetect(d, layers, &r)
	checkScales(d, strict, &r)

	r.Valid = len(r.Errors) == 0
	logf("validated %d layers: %d errors, %d warnings", len(layers), len(r.Errors), len(r.Warnings))
	return r
}

func checkDetect(d *topology.Description, layers []topology.LayerRecord, r *Result) {
	det, ok := d.Detect()
	if !ok {
		r.Errors = append(r.Errors, "no Detect layer in head")
		return
	}
	r.DetectInputs = append([]int(nil), det.From...)
	if det.Index != len(layers)-1 {
		r.Errors = append(r.Errors, fmt.Sprintf("Detect layer %d is not the last layer", det.Index))
	}
	if len(det.From) == 1 {
		r.Warnings = append(r.Warnings, "detection head has a single input scale")
	}
	if len(det.Args) > 0 && det.Args[0] != "nc" {
		if n, err := strconv.Atoi(det.Args[0]); err != nil || n != d.ClassCount {
			r.Warnings = append(r.Warnings, fmt.Sprintf("Detect class count %s does not match nc=%d", det.Args[0], d.ClassCount))
		}
	}
}

func checkScales(d *topology.Description, strict bool, r *Result) {
	want := len(topology.ScalePresets(1))
	var msg string
	switch n := len(d.Scales); {
	case n == 0:
		msg = "no scales block"
	case n != want:
		msg = fmt.Sprintf("scales block has %d presets, expected %d", n, want)
	default:
		return
	}
	if strict {
		r.Errors = append(r.Errors, msg)
	} else {
		r.Warnings = append(r.Warnings, msg)
	}
}

// ValidateFile reads and validates the description at path. Decode failures
// are returned as errors rather than folded into the result.
func ValidateFile(path string, strict bool) (*topology.Description, Result, error) {
	d, err := io.ReadDescription(path)
	if err != nil {
		return nil, Result{}, err
	}
	return d, Validate(d, strict), nil
}

func flatten(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	var ref *topology.ReferenceError
	if errors.As(err, &ref) {
		return []string{ref.Error()}
	}
	return []string{err.Error()}
}
