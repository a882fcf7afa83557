package topology

import (
	"strconv"
	"strings"
)

// Kind identifies the module a layer instantiates.
type Kind int

const (
	KindOther Kind = iota
	KindConv
	KindBlock
	KindPool
	KindUpsample
	KindConcat
	KindDetect
)

var kindModules = map[Kind]string{
	KindConv:     "Conv",
	KindBlock:    "C2f",
	KindPool:     "SPPF",
	KindUpsample: "nn.Upsample",
	KindConcat:   "Concat",
	KindDetect:   "Detect",
}

// Module returns the module name the model-construction library expects.
func (k Kind) Module() string {
	if m, ok := kindModules[k]; ok {
		return m
	}
	return ""
}

func (k Kind) String() string {
	switch k {
	case KindConv:
		return "conv"
	case KindBlock:
		return "block"
	case KindPool:
		return "pool"
	case KindUpsample:
		return "upsample"
	case KindConcat:
		return "concat"
	case KindDetect:
		return "detect"
	default:
		return "other"
	}
}

// KindOf maps a module name back to its Kind. Unknown names map to KindOther.
func KindOf(module string) Kind {
	for k, m := range kindModules {
		if m == module {
			return k
		}
	}
	return KindOther
}

// Previous is the input reference meaning "the layer emitted just before".
const Previous = -1

// LayerRecord is one emitted line of a description.
type LayerRecord struct {
	Index  int      `json:"index"`
	From   []int    `json:"from"`
	Repeat int      `json:"repeat"`
	Kind   Kind     `json:"kind"`
	Module string   `json:"module"`
	Args   []string `json:"args"`
}

// MultiInput reports whether the layer takes its inputs as a list.
func (l LayerRecord) MultiInput() bool {
	return l.Kind == KindConcat || l.Kind == KindDetect || len(l.From) != 1
}

// Render formats the record as a layer-list entry:
//
//	- [from, repeat, module, [args]]
func (l LayerRecord) Render() string {
	var b strings.Builder
	b.WriteString("- [")
	if l.MultiInput() {
		b.WriteString("[")
		b.WriteString(joinInts(l.From))
		b.WriteString("]")
	} else {
		b.WriteString(strconv.Itoa(l.From[0]))
	}
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(l.Repeat))
	b.WriteString(", ")
	module := l.Module
	if module == "" {
		module = l.Kind.Module()
	}
	b.WriteString(module)
	b.WriteString(", [")
	b.WriteString(strings.Join(l.Args, ", "))
	b.WriteString("]]")
	return b.String()
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func convArgs(channels int) []string {
	return []string{strconv.Itoa(channels), "3", "2"}
}

// Backbone blocks keep their residual shortcut; head blocks do not.
func blockArgs(channels int, shortcut bool) []string {
	if shortcut {
		return []string{strconv.Itoa(channels), "True"}
	}
	return []string{strconv.Itoa(channels)}
}

func poolArgs(channels int) []string {
	return []string{strconv.Itoa(channels), "5"}
}

func upsampleArgs() []string {
	return []string{"None", "2", `"nearest"`}
}

func concatArgs() []string {
	return []string{"1"}
}

func detectArgs() []string {
	return []string{"nc"}
}
