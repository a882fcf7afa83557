// Package io reads and writes the files tinynas-cli produces: architecture
// descriptions under the descriptions directory and CycloneDX BOMs for
// finished trials.
package io

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
)

// bomFormat resolves "json", "xml" or "auto" against the file extension.
// Anything that is not .xml is treated as JSON in auto mode.
func bomFormat(path, format string) (cdx.BOMFileFormat, string, error) {
	actual := strings.ToLower(strings.TrimSpace(format))
	switch actual {
	case "", "auto":
		actual = "json"
		if strings.EqualFold(filepath.Ext(path), ".xml") {
			actual = "xml"
		}
	case "json", "xml":
	default:
		return 0, "", fmt.Errorf("unsupported BOM format: %q", format)
	}
	if actual == "xml" {
		return cdx.BOMFileFormatXML, actual, nil
	}
	return cdx.BOMFileFormatJSON, actual, nil
}

// ReadBOM reads a trial BOM from path. format is "json", "xml" or "auto".
func ReadBOM(path string, format string) (*cdx.BOM, error) {
	fileFmt, _, err := bomFormat(path, format)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bom := new(cdx.BOM)
	if err := cdx.NewBOMDecoder(f, fileFmt).Decode(bom); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return bom, nil
}

// WriteBOM writes bom to outputPath, creating the parent directory. The
// extension must agree with the format. A non-empty spec pins the
// CycloneDX version of the encoding.
func WriteBOM(bom *cdx.BOM, outputPath string, format string, spec string) error {
	fileFmt, actual, err := bomFormat(outputPath, format)
	if err != nil {
		return err
	}
	if ext := filepath.Ext(outputPath); ext != "."+actual {
		return fmt.Errorf("output path extension %q does not match format %q", ext, actual)
	}

	var version cdx.SpecVersion
	if spec != "" {
		sv, ok := ParseSpecVersion(spec)
		if !ok {
			return fmt.Errorf("unsupported CycloneDX spec version: %q", spec)
		}
		version = sv
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := cdx.NewBOMEncoder(f, fileFmt)
	encoder.SetPretty(true)
	if spec == "" {
		return encoder.Encode(bom)
	}
	return encoder.EncodeVersion(bom, version)
}

var specVersions = map[string]cdx.SpecVersion{
	"1.0": cdx.SpecVersion1_0,
	"1.1": cdx.SpecVersion1_1,
	"1.2": cdx.SpecVersion1_2,
	"1.3": cdx.SpecVersion1_3,
	"1.4": cdx.SpecVersion1_4,
	"1.5": cdx.SpecVersion1_5,
	"1.6": cdx.SpecVersion1_6,
}

// ParseSpecVersion maps "1.0".."1.6" to a CycloneDX SpecVersion. Unknown
// input returns 1.6 and false.
func ParseSpecVersion(s string) (cdx.SpecVersion, bool) {
	sv, ok := specVersions[strings.TrimSpace(s)]
	if !ok {
		return cdx.SpecVersion1_6, false
	}
	return sv, true
}
