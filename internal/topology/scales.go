package topology

// ScalePreset is one named depth/width/max-channel triple of the scales block.
type ScalePreset struct {
	Name        string  `json:"name"`
	Depth       float64 `json:"depth"`
	Width       float64 `json:"width"`
	MaxChannels int     `json:"max_channels"`
}

// ScalePresets derives the five standard presets from the widest channel
// size. It does not depend on the topology.
func ScalePresets(maxChannels int) []ScalePreset {
	return []ScalePreset{
		{Name: "n", Depth: 0.33, Width: 0.25, MaxChannels: maxChannels},
		{Name: "s", Depth: 0.33, Width: 0.50, MaxChannels: maxChannels},
		{Name: "m", Depth: 0.67, Width: 0.75, MaxChannels: maxChannels * 3 / 4},
		{Name: "l", Depth: 1.00, Width: 1.00, MaxChannels: maxChannels / 2},
		{Name: "x", Depth: 1.00, Width: 1.25, MaxChannels: maxChannels / 2},
	}
}

var presetOrder = map[string]int{"n": 0, "s": 1, "m": 2, "l": 3, "x": 4}
