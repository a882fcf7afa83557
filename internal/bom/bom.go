// Package bom describes searched architectures as CycloneDX ML-BOMs.
//
// A BOM is built per completed trial: the metadata component is the
// candidate model with a model card carrying the search hyperparameters and
// the trainer metrics, and the dataset the candidate was trained on is
// listed as a data component it depends on.
package bom

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// Options configures BOM generation.
type Options struct {
	ToolName    string
	ToolVersion string
	// Task is the model card task; defaults to object-detection.
	Task string
	// ArchitectureFamily defaults to yolov8.
	ArchitectureFamily string
}

func DefaultOptions() Options {
	return Options{
		ToolName:           DefaultToolName,
		ToolVersion:        Version(),
		Task:               "object-detection",
		ArchitectureFamily: "yolov8",
	}
}

type BOMBuilder struct {
	Opts Options
}

func NewBOMBuilder(opts Options) *BOMBuilder {
	return &BOMBuilder{Opts: opts}
}

// Build returns the ML-BOM for one trial of run. Trials that did not complete
// have no metrics to describe and are rejected. run may be nil, in which case
// the training settings and the dataset are left out.
func (b BOMBuilder) Build(run *model.Run, t model.Trial) (*cdx.BOM, error) {
	if !t.Completed() {
		return nil, errors.New("bom: trial has not completed")
	}
	subject := TrialName(t)
	logf(subject, "build start")

	comp := buildMetadataComponent(run, t, b.Opts)

	bom := cdx.NewBOM()
	bom.Metadata = &cdx.Metadata{Component: comp}
	if err := AddMetaSerialNumber(bom); err != nil {
		return nil, err
	}
	if err := AddMetaTimestamp(bom); err != nil {
		return nil, err
	}
	if err := AddMetaTools(bom, b.Opts.ToolName, b.Opts.ToolVersion); err != nil {
		return nil, err
	}

	if ds := buildDatasetComponent(datasetName(run)); ds != nil {
		bom.Components = &[]cdx.Component{*ds}
	}
	AddDependencies(bom)

	logf(subject, "build ok (components=%d)", componentCount(bom))
	return bom, nil
}

// Build is shorthand for NewBOMBuilder(DefaultOptions()).Build(run, t).
func Build(run *model.Run, t model.Trial) (*cdx.BOM, error) {
	return NewBOMBuilder(DefaultOptions()).Build(run, t)
}

// TrialName is the component name used for a trial's model.
func TrialName(t model.Trial) string {
	if p := strings.TrimSpace(t.DescriptionPath); p != "" {
		return strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	}
	return "trial_" + strconv.Itoa(t.Number)
}

// FileName is the BOM file name for a trial in the given format.
func FileName(t model.Trial, format string) string {
	if format == "" {
		format = "json"
	}
	return TrialName(t) + ".bom." + format
}

func datasetName(run *model.Run) string {
	if run == nil {
		return ""
	}
	return strings.TrimSpace(run.Config.Dataset)
}

func componentCount(bom *cdx.BOM) int {
	n := 0
	if bom.Metadata != nil && bom.Metadata.Component != nil {
		n++
	}
	if bom.Components != nil {
		n += len(*bom.Components)
	}
	return n
}
