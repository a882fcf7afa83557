// Package topology turns structural hyperparameters into a layer-list
// description of a compact multi-scale detector.
//
// Layers are appended to a graph that assigns positions and resolves every
// concatenation or detection input by the logical identity of its source, so
// the emitted indices follow from the construction order alone. The
// generator is pure: it performs no I/O and keeps no state between calls.
package topology

import "fmt"

// Description is a generated (or parsed) architecture description.
type Description struct {
	ClassCount int           `json:"nc"`
	Scales     []ScalePreset `json:"scales"`
	Backbone   []LayerRecord `json:"backbone"`
	Head       []LayerRecord `json:"head"`

	// Taps are the backbone positions the head may fuse with. Parsed
	// descriptions leave it empty.
	Taps []int `json:"taps,omitempty"`
}

// Layers returns backbone and head records in emission order.
func (d *Description) Layers() []LayerRecord {
	out := make([]LayerRecord, 0, len(d.Backbone)+len(d.Head))
	out = append(out, d.Backbone...)
	return append(out, d.Head...)
}

// HeadStart is the position of the first head layer.
func (d *Description) HeadStart() int { return len(d.Backbone) }

// Detect returns the detection layer, the last head layer of kind Detect.
func (d *Description) Detect() (LayerRecord, bool) {
	for i := len(d.Head) - 1; i >= 0; i-- {
		if d.Head[i].Kind == KindDetect {
			return d.Head[i], true
		}
	}
	return LayerRecord{}, false
}

// Generate builds the description for spec. It fails with an
// *InvalidSpecError, and returns no description, when spec is outside
// the supported range or internally inconsistent.
func Generate(spec ArchitectureSpec) (*Description, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	head, ok := headFor(spec.StageCount - 1)
	if !ok {
		return nil, invalid("stage_count", "no head layout for %d stages", spec.StageCount)
	}

	g := newGraph()
	bb := buildBackbone(g, spec)
	headStart := g.len()
	head.build(g, bb, spec.ChannelSizes)
	if g.err != nil {
		return nil, fmt.Errorf("%s head: %w", head.name(), g.err)
	}

	taps := make([]int, len(bb.taps))
	for i, id := range bb.taps {
		taps[i], _ = g.pos(id)
	}

	return &Description{
		ClassCount: spec.ClassCount,
		Scales:     ScalePresets(spec.MaxChannels()),
		Backbone:   g.layers[:headStart:headStart],
		Head:       g.layers[headStart:],
		Taps:       taps,
	}, nil
}
