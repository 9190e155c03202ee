// Package linker builds a map from each imported symbol to the image that
// exports a matching definition.
package linker

import "github.com/xyproto/linkgraph/internal/model"

// Link resolves imports against deps, in the order deps is given.
//
// When two dependencies both export the same symbol name, the later one in
// deps wins — a deliberate, documented tie-break (see the design notes
// relating it to true ELF search-order semantics), not weak/strong
// discipline. Callers that want the engine's "dependencies visited in
// sorted needed-name order" rule should pass deps already in that order.
func Link(imports []model.ImportedSymbol, deps []*model.ImageSummary) map[model.VersionedSymbol]*model.ImageSummary {
	needed := make(map[string]bool, len(imports))
	for _, imp := range imports {
		needed[imp.Symbol.Name] = true
	}

	result := make(map[model.VersionedSymbol]*model.ImageSummary)
	for _, dep := range deps {
		if !dep.IsDynamic() {
			continue
		}
		for _, exp := range dep.Dynamic.Exports {
			if needed[exp.Symbol.Name] {
				result[exp.Symbol] = dep
			}
		}
	}
	return result
}
