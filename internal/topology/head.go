package topology

// headStrategy emits the top-down fusion path and the detection layer for
// one supported backbone depth.
type headStrategy interface {
	name() string
	build(g *graph, bb backbone, c []int)
}

// heads is keyed by the number of backbone stages after the stem stage,
// i.e. StageCount-1.
var heads = map[int]headStrategy{
	4: fpn3Head{},
	3: fpn2Head{},
	2: singleTapHead{},
}

func headFor(stages int) (headStrategy, bool) {
	h, ok := heads[stages]
	return h, ok
}

// fpn3Head walks down from the deepest tap to the two shallower taps and back
// up again, detecting at three scales.
type fpn3Head struct{}

func (fpn3Head) name() string { return "fpn3" }

func (fpn3Head) build(g *graph, bb backbone, c []int) {
	g.add("head.p4.up", KindUpsample, 1, upsampleArgs())
	g.add("head.p4.cat", KindConcat, 1, concatArgs(), prev(), node(bb.tap(2)))
	g.add("head.p4.td", KindBlock, 3, blockArgs(c[3], false))

	g.add("head.p3.up", KindUpsample, 1, upsampleArgs())
	g.add("head.p3.cat", KindConcat, 1, concatArgs(), prev(), node(bb.tap(1)))
	g.add("head.p3.out", KindBlock, 3, blockArgs(c[2], false))

	g.add("head.p4.down", KindConv, 1, convArgs(c[2]))
	g.add("head.p4.merge", KindConcat, 1, concatArgs(), prev(), node("head.p4.td"))
	g.add("head.p4.out", KindBlock, 3, blockArgs(c[3], false))

	g.add("head.p5.down", KindConv, 1, convArgs(c[3]))
	g.add("head.p5.merge", KindConcat, 1, concatArgs(), prev(), node(bb.deepest()))
	g.add("head.p5.out", KindBlock, 3, blockArgs(c[4], false))

	g.add("head.detect", KindDetect, 1, detectArgs(), nodes("head.p3.out", "head.p4.out", "head.p5.out")...)
}

// fpn2Head fuses one level down and one level back up, detecting at two
// scales. The upward merge uses the third stage block even when a pooling
// layer follows it.
type fpn2Head struct{}

func (fpn2Head) name() string { return "fpn2" }

func (fpn2Head) build(g *graph, bb backbone, c []int) {
	g.add("head.p3.up", KindUpsample, 1, upsampleArgs())
	g.add("head.p3.cat", KindConcat, 1, concatArgs(), prev(), node(bb.tap(1)))
	g.add("head.p3.out", KindBlock, 3, blockArgs(c[2], false))

	g.add("head.p4.down", KindConv, 1, convArgs(c[2]))
	g.add("head.p4.merge", KindConcat, 1, concatArgs(), prev(), node(bb.tap(2)))
	g.add("head.p4.out", KindBlock, 3, blockArgs(c[3], false))

	g.add("head.detect", KindDetect, 1, detectArgs(), nodes("head.p3.out", "head.p4.out")...)
}

// singleTapHead feeds the deepest backbone output straight into detection
// with no multi-scale fusion.
//
// TODO: validate this head against a trained model before widening the search
// space; no search so far has produced a usable detector from it.
type singleTapHead struct{}

func (singleTapHead) name() string { return "single" }

func (singleTapHead) build(g *graph, bb backbone, _ []int) {
	g.add("head.detect", KindDetect, 1, detectArgs(), node(bb.deepest()))
}
