package trainer

import (
	"fmt"
	"math"
	"strconv"

	"github.com/idlab-discover/tinynas-cli/internal/topology"
)

// Footprint is the static cost of a description.
type Footprint struct {
	Params int64
	GFLOPs float64
}

// Estimate counts the parameters and forward-pass GFLOPs of d at an imgsz
// square input, the way Ultralytics builds it: the first scale preset is
// applied to widths and block depths, convolutions carry batch-norm, and
// the detection head is the decoupled box/class head with 16 DFL bins.
func Estimate(d *topology.Description, imgsz int) (Footprint, error) {
	layers := d.Layers()
	if err := topology.CheckReferences(layers); err != nil {
		return Footprint{}, err
	}
	depth, width, maxCh := 1.0, 1.0, math.MaxInt
	if len(d.Scales) > 0 {
		s := d.Scales[0]
		depth, width, maxCh = s.Depth, s.Width, s.MaxChannels
	}
	scaleWidth := func(c int) int {
		v := float64(min(c, maxCh)) * width
		return int(math.Ceil(v/8) * 8)
	}
	scaleDepth := func(n int) int {
		if n <= 1 {
			return n
		}
		return max(int(math.Round(float64(n)*depth)), 1)
	}

	ch := make([]int, len(layers))
	hw := make([]int, len(layers))
	source := func(pos, ref int) (int, int, error) {
		if ref < 0 {
			ref += pos
		}
		if ref < 0 {
			return 3, imgsz, nil
		}
		if ref >= pos {
			return 0, 0, &topology.ReferenceError{Layer: pos, Ref: ref}
		}
		return ch[ref], hw[ref], nil
	}

	var fp Footprint
	flops := 0.0
	for pos, l := range layers {
		if len(l.From) == 0 {
			return Footprint{}, fmt.Errorf("layer %d: no inputs", pos)
		}
		cin, size, err := source(pos, l.From[0])
		if err != nil {
			return Footprint{}, err
		}
		out, outSize := cin, size
		var p int64

		switch l.Kind {
		case topology.KindConv:
			c, err := intArg(l, 0)
			if err != nil {
				return Footprint{}, err
			}
			k, s := intArgOr(l, 1, 1), intArgOr(l, 2, 1)
			out = scaleWidth(c)
			outSize = (size + s - 1) / s
			p = convParams(cin, out, k)
		case topology.KindBlock:
			c, err := intArg(l, 0)
			if err != nil {
				return Footprint{}, err
			}
			out = scaleWidth(c)
			p = c2fParams(cin, out, scaleDepth(l.Repeat))
		case topology.KindPool:
			c, err := intArg(l, 0)
			if err != nil {
				return Footprint{}, err
			}
			out = scaleWidth(c)
			p = sppfParams(cin, out)
		case topology.KindUpsample:
			outSize = size * 2
		case topology.KindConcat:
			out = 0
			for _, ref := range l.From {
				c, _, err := source(pos, ref)
				if err != nil {
					return Footprint{}, err
				}
				out += c
			}
		case topology.KindDetect:
			c2 := max(16, cin/4, 64)
			c3 := max(cin, min(d.ClassCount, 100))
			for _, ref := range l.From {
				x, xs, err := source(pos, ref)
				if err != nil {
					return Footprint{}, err
				}
				hp := convParams(x, c2, 3) + convParams(c2, c2, 3) + int64(c2*64+64) +
					convParams(x, c3, 3) + convParams(c3, c3, 3) + int64(c3*d.ClassCount+d.ClassCount)
				p += hp
				flops += 2 * float64(hp) * float64(xs*xs)
			}
		default:
			return Footprint{}, fmt.Errorf("layer %d: cannot estimate module %q", pos, l.Module)
		}

		ch[pos], hw[pos] = out, outSize
		fp.Params += p
		if l.Kind != topology.KindDetect {
			flops += 2 * float64(p) * float64(outSize*outSize)
		}
	}
	fp.GFLOPs = flops / 1e9
	return fp, nil
}

func convParams(cin, cout, k int) int64 {
	return int64(cin*cout*k*k + 2*cout)
}

func c2fParams(cin, cout, n int) int64 {
	h := cout / 2
	p := convParams(cin, 2*h, 1) + convParams((2+n)*h, cout, 1)
	return p + int64(n)*2*convParams(h, h, 3)
}

func sppfParams(cin, cout int) int64 {
	h := cin / 2
	return convParams(cin, h, 1) + convParams(4*h, cout, 1)
}

func intArg(l topology.LayerRecord, i int) (int, error) {
	if i >= len(l.Args) {
		return 0, fmt.Errorf("layer %d: %s has no argument %d", l.Index, l.Module, i)
	}
	v, err := strconv.Atoi(l.Args[i])
	if err != nil {
		return 0, fmt.Errorf("layer %d: %s argument %d: %w", l.Index, l.Module, i, err)
	}
	return v, nil
}

func intArgOr(l topology.LayerRecord, i, def int) int {
	v, err := intArg(l, i)
	if err != nil {
		return def
	}
	return v
}
