package bom

import (
	"strconv"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// Property names written on the model component.
const (
	PropRunID        = "tinynas:run"
	PropTrial        = "tinynas:trial"
	PropDescription  = "tinynas:description"
	PropStages       = "tinynas:stages"
	PropInitChannels = "tinynas:init_channel"
	PropChannelScale = "tinynas:scale"
	PropBlockRepeats = "tinynas:c2f_repeats"
	PropIncludePool  = "tinynas:include_sppf"
	PropChannelSizes = "tinynas:channel_sizes"
	PropClassCount   = "tinynas:nc"
	PropFeasible     = "tinynas:feasible"
	PropEpochs       = "tinynas:epochs"
	PropImageSize    = "tinynas:imgsz"
	PropTrainer      = "tinynas:trainer"
	PropWeights      = "tinynas:weights"
)

func buildMetadataComponent(run *model.Run, t model.Trial, opts Options) *cdx.Component {
	comp := &cdx.Component{
		Type:      cdx.ComponentTypeMachineLearningModel,
		Name:      TrialName(t),
		ModelCard: buildModelCard(run, t, opts),
	}
	AddComponentPurl(comp, t)
	AddComponentBOMRef(comp)

	setProperty(comp, PropRunID, t.RunID)
	setProperty(comp, PropTrial, strconv.Itoa(t.Number))
	setProperty(comp, PropDescription, t.DescriptionPath)
	setProperty(comp, PropStages, strconv.Itoa(t.Params.Stages))
	setProperty(comp, PropInitChannels, strconv.Itoa(t.Params.InitChannels))
	setProperty(comp, PropChannelScale, formatFloat(t.Params.ChannelScale))
	setProperty(comp, PropBlockRepeats, joinInts(t.Params.BlockRepeats))
	setProperty(comp, PropIncludePool, strconv.FormatBool(t.Params.IncludePool))
	setProperty(comp, PropChannelSizes, joinInts(t.Spec.ChannelSizes))
	if t.Spec.ClassCount > 0 {
		setProperty(comp, PropClassCount, strconv.Itoa(t.Spec.ClassCount))
	}
	setProperty(comp, PropFeasible, strconv.FormatBool(t.Feasible))
	setProperty(comp, PropWeights, t.Metrics.WeightsPath)
	if run != nil {
		setProperty(comp, PropEpochs, strconv.Itoa(run.Config.Epochs))
		setProperty(comp, PropImageSize, strconv.Itoa(run.Config.ImageSize))
		setProperty(comp, PropTrainer, run.Config.Trainer)
	}
	return comp
}

func buildModelCard(run *model.Run, t model.Trial, opts Options) *cdx.MLModelCard {
	card := &cdx.MLModelCard{}
	mp := &cdx.MLModelParameters{
		Task:               opts.Task,
		ArchitectureFamily: opts.ArchitectureFamily,
		ModelArchitecture:  t.Params.String(),
	}
	if ds := datasetName(run); ds != "" {
		mp.Datasets = &[]cdx.MLDatasetChoice{{Ref: datasetRef(ds)}}
	}
	card.ModelParameters = mp

	metrics := []cdx.MLPerformanceMetric{
		{Type: "score", Value: formatFloat(t.Score)},
		{Type: "precision", Value: formatFloat(t.Metrics.Precision)},
		{Type: "recall", Value: formatFloat(t.Metrics.Recall)},
		{Type: "mAP50", Value: formatFloat(t.Metrics.MAP50)},
		{Type: "params_m", Value: formatFloat(t.Metrics.ParamsM)},
		{Type: "gflops", Value: formatFloat(t.Metrics.GFLOPs)},
		{Type: "size_kb", Value: formatFloat(t.Metrics.SizeKB)},
	}
	card.QuantitativeAnalysis = &cdx.MLQuantitativeAnalysis{PerformanceMetrics: &metrics}
	return card
}

// buildDatasetComponent creates the DATA component for the training dataset.
func buildDatasetComponent(name string) *cdx.Component {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &cdx.Component{
		Type:   cdx.ComponentTypeData,
		Name:   name,
		BOMRef: datasetRef(name),
	}
}

func datasetRef(name string) string {
	return "dataset:" + NormalizeSegment(strings.TrimSpace(name))
}

// AddComponentPurl sets a generic purl of the form
// pkg:generic/<name>@<run>?trial=<n> unless one is already set.
func AddComponentPurl(c *cdx.Component, t model.Trial) {
	if c == nil || c.PackageURL != "" {
		return
	}
	name := NormalizeSegment(strings.TrimSpace(c.Name))
	if name == "" {
		name = "unknown"
	}
	purl := "pkg:generic/" + name
	if t.RunID != "" {
		purl += "@" + strings.ToLower(NormalizeSegment(t.RunID))
	}
	c.PackageURL = purl + "?trial=" + strconv.Itoa(t.Number)
}

// AddComponentBOMRef sets Component.BOMRef. If PURL exists it uses that, otherwise sets a UUID urn.
func AddComponentBOMRef(c *cdx.Component) {
	if c == nil || c.BOMRef != "" {
		return
	}
	if c.PackageURL != "" {
		c.BOMRef = c.PackageURL
		return
	}
	c.BOMRef = "urn:uuid:" + generateUUID()
}

// NormalizeSegment safe-encodes @, spaces, ? and / in purl segments.
func NormalizeSegment(segment string) string {
	var b strings.Builder
	for _, ch := range segment {
		switch ch {
		case '@':
			b.WriteString("%40")
		case ' ':
			b.WriteString("%20")
		case '?':
			b.WriteString("%3F")
		case '/':
			b.WriteString("%2F")
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func setProperty(c *cdx.Component, name, value string) {
	if c == nil {
		return
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" || value == "" {
		return
	}
	if c.Properties == nil {
		c.Properties = &[]cdx.Property{}
	}
	*c.Properties = append(*c.Properties, cdx.Property{Name: name, Value: value})
}

// Property returns the value of the named property, if present.
func Property(c *cdx.Component, name string) (string, bool) {
	if c == nil || c.Properties == nil {
		return "", false
	}
	for _, p := range *c.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
