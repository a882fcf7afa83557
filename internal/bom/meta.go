package bom

import (
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
)

// AddMetaSerialNumber sets a serial number if not already set
func AddMetaSerialNumber(bom *cdx.BOM) error {
	if bom.SerialNumber == "" {
		bom.SerialNumber = "urn:uuid:" + generateUUID()
	}
	return nil
}

func generateUUID() string {
	return uuid.New().String()
}

// AddMetaTimestamp sets the timestamp if not already set
func AddMetaTimestamp(bom *cdx.BOM) error {
	if bom.Metadata == nil {
		bom.Metadata = &cdx.Metadata{}
	}
	if bom.Metadata.Timestamp == "" {
		bom.Metadata.Timestamp = now().Format(time.RFC3339)
	}
	return nil
}

var now = time.Now

const (
	DefaultToolVendor  = "idlab-discover"
	DefaultToolName    = "tinynas-cli"
	DefaultToolVersion = "v0.0.0"
)

// AddMetaTools adds a Component entry for the tool into bom.metadata.tools.Components.
// If toolName or toolVersion are empty the defaults above are used.
func AddMetaTools(bom *cdx.BOM, toolName string, toolVersion string) error {
	if bom.Metadata == nil {
		bom.Metadata = &cdx.Metadata{}
	}
	if bom.Metadata.Tools == nil {
		bom.Metadata.Tools = &cdx.ToolsChoice{}
	}

	name := toolName
	if name == "" {
		name = DefaultToolName
	}
	version := toolVersion
	if version == "" {
		version = DefaultToolVersion
	}

	comp := cdx.Component{
		Type:         cdx.ComponentTypeApplication,
		Manufacturer: &cdx.OrganizationalEntity{Name: DefaultToolVendor},
		Name:         name,
		Version:      version,
	}

	if bom.Metadata.Tools.Components == nil {
		bom.Metadata.Tools.Components = &[]cdx.Component{comp}
	} else {
		components := append(*bom.Metadata.Tools.Components, comp)
		bom.Metadata.Tools.Components = &components
	}
	return nil
}
