package topology

import "testing"

func TestScalePresets_DerivedFromMaxChannels(t *testing.T) {
	spec := ArchitectureSpec{ChannelSizes: []int{32, 48, 72, 108, 162}}
	got := ScalePresets(spec.MaxChannels())

	want := map[string]int{"n": 162, "s": 162, "m": 121, "l": 81, "x": 81}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for _, p := range got {
		if p.MaxChannels != want[p.Name] {
			t.Fatalf("preset %s max channels = %d, want %d", p.Name, p.MaxChannels, want[p.Name])
		}
	}
	order := []string{"n", "s", "m", "l", "x"}
	for i, p := range got {
		if p.Name != order[i] {
			t.Fatalf("preset %d = %s, want %s", i, p.Name, order[i])
		}
	}
}

func TestTapIndices(t *testing.T) {
	tests := []struct {
		stages int
		pool   bool
		want   []int
	}{
		{3, false, []int{2, 4}},
		{3, true, []int{2, 4, 5}},
		{4, false, []int{2, 4, 6}},
		{4, true, []int{2, 4, 6, 7}},
		{5, false, []int{2, 4, 6, 8}},
		{5, true, []int{2, 4, 6, 8, 9}},
		{1, false, nil},
	}
	for _, tt := range tests {
		got := TapIndices(tt.stages, tt.pool)
		if len(got) != len(tt.want) {
			t.Fatalf("TapIndices(%d,%v) = %v, want %v", tt.stages, tt.pool, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("TapIndices(%d,%v) = %v, want %v", tt.stages, tt.pool, got, tt.want)
			}
		}
	}
}
