package bom

import cdx "github.com/CycloneDX/cyclonedx-go"

// AddDependencies builds a minimal dependency graph where the model
// (metadata component) depends on every dataset component.
func AddDependencies(bom *cdx.BOM) {
	if bom == nil {
		return
	}

	var modelRef string
	if bom.Metadata != nil && bom.Metadata.Component != nil {
		modelRef = bom.Metadata.Component.BOMRef
	}
	if modelRef == "" {
		return
	}

	var datasetRefs []string
	if bom.Components != nil {
		for _, comp := range *bom.Components {
			if comp.Type == cdx.ComponentTypeData && comp.BOMRef != "" {
				datasetRefs = append(datasetRefs, comp.BOMRef)
			}
		}
	}

	deps := make([]cdx.Dependency, 0, 1+len(datasetRefs))
	modelDep := cdx.Dependency{Ref: modelRef}
	if len(datasetRefs) > 0 {
		cp := make([]string, len(datasetRefs))
		copy(cp, datasetRefs)
		modelDep.Dependencies = &cp
	}
	deps = append(deps, modelDep)
	for _, ds := range datasetRefs {
		deps = append(deps, cdx.Dependency{Ref: ds})
	}

	bom.Dependencies = &deps
}
