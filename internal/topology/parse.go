package topology

import (
	"fmt"
	"sort"
	"strconv"

	yaml "go.yaml.in/yaml/v3"
)

type rawDescription struct {
	NC       int         `yaml:"nc"`
	Scales   yaml.Node   `yaml:"scales"`
	Backbone []yaml.Node `yaml:"backbone"`
	Head     []yaml.Node `yaml:"head"`
}

// Parse decodes a layer-list description. Argument scalars keep their
// quoting so that rendering a parsed description reproduces the input.
func Parse(data []byte) (*Description, error) {
	var raw rawDescription
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	if len(raw.Backbone) == 0 {
		return nil, fmt.Errorf("decode description: backbone is empty")
	}

	scales, err := parseScales(&raw.Scales)
	if err != nil {
		return nil, err
	}

	d := &Description{ClassCount: raw.NC, Scales: scales}
	for i := range raw.Backbone {
		l, err := parseLayer(&raw.Backbone[i], len(d.Backbone))
		if err != nil {
			return nil, fmt.Errorf("backbone: %w", err)
		}
		d.Backbone = append(d.Backbone, l)
	}
	for i := range raw.Head {
		l, err := parseLayer(&raw.Head[i], len(d.Backbone)+len(d.Head))
		if err != nil {
			return nil, fmt.Errorf("head: %w", err)
		}
		d.Head = append(d.Head, l)
	}
	return d, nil
}

func parseScales(n *yaml.Node) ([]ScalePreset, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("scales: expected a mapping, got line %d", n.Line)
	}
	var out []ScalePreset
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		var vals []float64
		if err := n.Content[i+1].Decode(&vals); err != nil {
			return nil, fmt.Errorf("scales.%s: %w", name, err)
		}
		if len(vals) != 3 {
			return nil, fmt.Errorf("scales.%s: expected [depth, width, max_channels], got %d values", name, len(vals))
		}
		out = append(out, ScalePreset{Name: name, Depth: vals[0], Width: vals[1], MaxChannels: int(vals[2])})
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi, iok := presetOrder[out[i].Name]
		oj, jok := presetOrder[out[j].Name]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return out[i].Name < out[j].Name
		}
	})
	return out, nil
}

func parseLayer(n *yaml.Node, index int) (LayerRecord, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 4 {
		return LayerRecord{}, fmt.Errorf("layer %d (line %d): expected [from, repeat, module, args]", index, n.Line)
	}
	from, err := parseFrom(n.Content[0])
	if err != nil {
		return LayerRecord{}, fmt.Errorf("layer %d: from: %w", index, err)
	}
	var repeat int
	if err := n.Content[1].Decode(&repeat); err != nil {
		return LayerRecord{}, fmt.Errorf("layer %d: repeat: %w", index, err)
	}
	module := n.Content[2].Value
	args, err := parseArgs(n.Content[3])
	if err != nil {
		return LayerRecord{}, fmt.Errorf("layer %d: args: %w", index, err)
	}
	kind := KindOf(module)
	rec := LayerRecord{
		Index:  index,
		From:   from,
		Repeat: repeat,
		Kind:   kind,
		Module: module,
		Args:   args,
	}
	return rec, nil
}

func parseFrom(n *yaml.Node) ([]int, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		var v int
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return []int{v}, nil
	case yaml.SequenceNode:
		var vs []int
		if err := n.Decode(&vs); err != nil {
			return nil, err
		}
		if len(vs) == 0 {
			return nil, fmt.Errorf("empty input list")
		}
		return vs, nil
	default:
		return nil, fmt.Errorf("unsupported input reference at line %d", n.Line)
	}
}

func parseArgs(n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list at line %d", n.Line)
	}
	args := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("nested argument at line %d", c.Line)
		}
		switch {
		case c.Style&yaml.DoubleQuotedStyle != 0:
			args = append(args, strconv.Quote(c.Value))
		case c.Style&yaml.SingleQuotedStyle != 0:
			args = append(args, "'"+c.Value+"'")
		default:
			args = append(args, c.Value)
		}
	}
	return args, nil
}
