package topology

// backbone is the result of emitting the feature extractor: the tap nodes the
// head may fuse with, in emission order. The deepest tap is the pooling layer
// when present, otherwise the last stage block.
type backbone struct {
	taps []NodeID
}

func (b backbone) tap(i int) NodeID { return b.taps[i] }

func (b backbone) deepest() NodeID { return b.taps[len(b.taps)-1] }

// buildBackbone emits the stem, one conv+block pair per remaining stage and
// the optional pooling layer.
func buildBackbone(g *graph, spec ArchitectureSpec) backbone {
	c := spec.ChannelSizes
	stages := spec.StageCount - 1

	g.add("backbone.p1", KindConv, 1, convArgs(c[0]))
	g.add(levelDown(2), KindConv, 1, convArgs(c[1]))
	g.add(level(2), KindBlock, spec.BlockRepeats[0], blockArgs(c[1], true))

	bb := backbone{taps: []NodeID{level(2)}}
	for i := 2; i <= stages; i++ {
		p := i + 1
		g.add(levelDown(p), KindConv, 1, convArgs(c[i]))
		g.add(level(p), KindBlock, spec.BlockRepeats[i-1], blockArgs(c[i], true))
		bb.taps = append(bb.taps, level(p))
	}

	if spec.IncludePool {
		g.add(poolNode, KindPool, 1, poolArgs(c[len(c)-1]))
		bb.taps = append(bb.taps, poolNode)
	}
	return bb
}
