package topology

import (
	"errors"
	"fmt"
)

// ReferenceError reports an input reference that does not name an earlier
// layer.
type ReferenceError struct {
	Layer int
	Ref   int
}

func (e *ReferenceError) Error() string {
	if e.Ref >= e.Layer {
		return fmt.Sprintf("layer %d: forward reference to %d", e.Layer, e.Ref)
	}
	return fmt.Sprintf("layer %d: reference %d is out of range", e.Layer, e.Ref)
}

// CheckReferences verifies that every input reference is -1 or an earlier
// position. Other negative values are relative offsets and must stay within
// the emitted layers. All violations are joined into the returned error.
func CheckReferences(layers []LayerRecord) error {
	var errs []error
	for pos, l := range layers {
		if l.Index != pos {
			errs = append(errs, fmt.Errorf("layer %d: recorded index %d does not match position", pos, l.Index))
		}
		for _, ref := range l.From {
			switch {
			case ref == Previous:
			case ref < 0:
				if pos+ref < 0 {
					errs = append(errs, &ReferenceError{Layer: pos, Ref: ref})
				}
			case ref >= pos:
				errs = append(errs, &ReferenceError{Layer: pos, Ref: ref})
			}
		}
	}
	return errors.Join(errs...)
}
