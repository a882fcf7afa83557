package topology

// TapIndices computes the positions of the backbone feature maps the head
// can fuse with: the first stage block sits at 2, every further stage adds a
// conv and a block, and a pooling layer adds one more tap right after the
// last block.
func TapIndices(stageCount int, includePool bool) []int {
	stages := stageCount - 1
	if stages < 1 {
		return nil
	}
	taps := []int{2}
	for i := 0; i < stages-1; i++ {
		taps = append(taps, taps[len(taps)-1]+2)
	}
	if includePool {
		taps = append(taps, taps[len(taps)-1]+1)
	}
	return taps
}

// BackboneLength is the number of backbone layers emitted for a stage count.
func BackboneLength(stageCount int, includePool bool) int {
	n := 1 + 2*(stageCount-1)
	if includePool {
		n++
	}
	return n
}
