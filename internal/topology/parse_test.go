package topology

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse_RoundTripsGeneratedDescriptions(t *testing.T) {
	forEachValidSpec(t, func(t *testing.T, spec ArchitectureSpec) {
		d, err := Generate(spec)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		parsed, err := Parse([]byte(d.Render()))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if parsed.Taps != nil {
			t.Fatalf("parsed descriptions should not carry taps")
		}
		parsed.Taps = d.Taps
		if !reflect.DeepEqual(parsed, d) {
			t.Fatalf("parsed description differs\n got: %+v\nwant: %+v", parsed, d)
		}
		if parsed.Render() != d.Render() {
			t.Fatalf("re-rendered output differs")
		}
	})
}

func TestParse_ScalesAreOrderedCanonically(t *testing.T) {
	doc := `nc: 2
scales:
  x: [1.00, 1.25, 64]
  n: [0.33, 0.25, 128]
  custom: [0.5, 0.5, 32]
  m: [0.67, 0.75, 96]
backbone:
- [-1, 1, Conv, [16, 3, 2]]
head:
- [[0], 1, Detect, [nc]]
`
	d, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var names []string
	for _, s := range d.Scales {
		names = append(names, s.Name)
	}
	if got := strings.Join(names, ","); got != "n,m,x,custom" {
		t.Fatalf("scale order = %s", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "invalid yaml", doc: "nc: [\n"},
		{name: "empty backbone", doc: "nc: 1\nbackbone: []\n"},
		{name: "short layer", doc: "nc: 1\nbackbone:\n- [-1, 1, Conv]\n"},
		{name: "bad repeat", doc: "nc: 1\nbackbone:\n- [-1, x, Conv, [16]]\n"},
		{name: "nested args", doc: "nc: 1\nbackbone:\n- [-1, 1, Conv, [[16]]]\n"},
		{name: "bad scale", doc: "nc: 1\nscales:\n  n: [1, 2]\nbackbone:\n- [-1, 1, Conv, [16]]\n"},
		{name: "empty inputs", doc: "nc: 1\nbackbone:\n- [[], 1, Conv, [16]]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCheckReferences(t *testing.T) {
	ok := []LayerRecord{
		{Index: 0, From: []int{-1}},
		{Index: 1, From: []int{-1}},
		{Index: 2, From: []int{-1, 0}},
		{Index: 3, From: []int{-2}},
	}
	if err := CheckReferences(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []LayerRecord{
		{Index: 0, From: []int{-1}},
		{Index: 1, From: []int{-1, 1}},
		{Index: 2, From: []int{5}},
		{Index: 3, From: []int{-9}},
		{Index: 7, From: []int{-1}},
	}
	err := CheckReferences(bad)
	if err == nil {
		t.Fatalf("expected error")
	}
	var refErr *ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"layer 1: forward reference to 1", "layer 2: forward reference to 5", "layer 3: reference -9 is out of range", "recorded index 7"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %q", msg, want)
		}
	}
}

func TestKindOf_RoundTrip(t *testing.T) {
	for _, k := range []Kind{KindConv, KindBlock, KindPool, KindUpsample, KindConcat, KindDetect} {
		if got := KindOf(k.Module()); got != k {
			t.Fatalf("KindOf(%q) = %v, want %v", k.Module(), got, k)
		}
	}
	if KindOf("C3") != KindOther {
		t.Fatalf("unknown module should map to KindOther")
	}
}
