package topology

import (
	"fmt"
	"strings"
)

const descriptionHeader = "# Custom YOLOv8 Model\n# Auto-generated\n"

// Render serializes the description in the declarative layer-list format
// consumed by the model-construction library. Output is byte-stable for
// equal descriptions.
func (d *Description) Render() string {
	var b strings.Builder
	b.WriteString(descriptionHeader)
	fmt.Fprintf(&b, "\nnc: %d\n\nscales:\n", d.ClassCount)
	for _, s := range d.Scales {
		fmt.Fprintf(&b, "  %s: [%.2f, %.2f, %d]\n", s.Name, s.Depth, s.Width, s.MaxChannels)
	}

	b.WriteString("\nbackbone:\n")
	writeLayers(&b, d.Backbone)
	b.WriteString("\n\nhead:\n")
	writeLayers(&b, d.Head)
	b.WriteString("\n")
	return b.String()
}

func writeLayers(b *strings.Builder, layers []LayerRecord) {
	for i, l := range layers {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(l.Render())
	}
}
