package topology

import "fmt"

// NodeID is the logical identity of a layer, independent of its position.
type NodeID string

// input is a reference to an earlier layer, either the one just emitted or a
// named node whose position is resolved when the referencing layer is added.
type input struct {
	prev bool
	node NodeID
}

func prev() input { return input{prev: true} }
func node(id NodeID) input { return input{node: id} }
func nodes(ids ...NodeID) []input {
	ins := make([]input, len(ids))
	for i, id := range ids {
		ins[i] = node(id)
	}
	return ins
}

// graph assigns positions to layers as they are appended and resolves inputs
// by logical identity. Only nodes that already exist can be resolved, so a
// forward reference is reported as an error rather than emitted.
type graph struct {
	layers []LayerRecord
	index  map[NodeID]int
	err    error
}

func newGraph() *graph {
	return &graph{index: make(map[NodeID]int)}
}

func (g *graph) len() int { return len(g.layers) }

// add appends a layer and returns its position. With no inputs the layer
// consumes the previous one.
func (g *graph) add(id NodeID, kind Kind, repeat int, args []string, ins ...input) int {
	if g.err != nil {
		return -1
	}
	if _, dup := g.index[id]; dup {
		g.err = fmt.Errorf("topology: duplicate node %q", id)
		return -1
	}
	if len(ins) == 0 {
		ins = []input{prev()}
	}
	from := make([]int, 0, len(ins))
	for _, in := range ins {
		if in.prev {
			from = append(from, Previous)
			continue
		}
		pos, ok := g.index[in.node]
		if !ok {
			g.err = fmt.Errorf("topology: node %q references unknown node %q", id, in.node)
			return -1
		}
		from = append(from, pos)
	}

	pos := len(g.layers)
	g.layers = append(g.layers, LayerRecord{
		Index:  pos,
		From:   from,
		Repeat: repeat,
		Kind:   kind,
		Module: kind.Module(),
		Args:   args,
	})
	g.index[id] = pos
	return pos
}

// pos returns the position of a node that was already added.
func (g *graph) pos(id NodeID) (int, bool) {
	p, ok := g.index[id]
	return p, ok
}

// level names a backbone feature map by pyramid level (P2 is stride 4).
func level(p int) NodeID { return NodeID(fmt.Sprintf("backbone.p%d", p)) }

func levelDown(p int) NodeID { return NodeID(fmt.Sprintf("backbone.p%d.down", p)) }

const poolNode NodeID = "backbone.pool"
