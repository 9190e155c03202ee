// Package engine is the façade that orchestrates decoding, search-path
// composition, dependency resolution, and symbol linking into one
// LinkGraph.
package engine

import (
	"fmt"

	"github.com/xyproto/linkgraph/internal/elfimage"
	"github.com/xyproto/linkgraph/internal/linker"
	"github.com/xyproto/linkgraph/internal/model"
	"github.com/xyproto/linkgraph/internal/resolve"
	"github.com/xyproto/linkgraph/internal/searchpath"
)

// Engine runs the pipeline over one root path and sysroot.
type Engine struct {
	// Verbose, when set, receives diagnostic lines as resolution proceeds
	// (soft dependency misses). It matches the teacher's VerboseMode-gated
	// fmt.Fprintf(os.Stderr, ...) idiom, but as an injected sink instead of
	// a package-level flag, so the engine stays free of global state.
	Verbose func(format string, args ...any)
}

// New returns an Engine with no verbose sink.
func New() *Engine {
	return &Engine{Verbose: func(string, ...any) {}}
}

func (e *Engine) logf(format string, args ...any) {
	if e.Verbose != nil {
		e.Verbose(format, args...)
	}
}

// Analyze decodes rootPath, composes the search path under sysroot, walks
// the transitive dependency closure, links every imported symbol to its
// provider, and returns the assembled LinkGraph.
//
// A decode failure on rootPath is root-fatal and returned as an error; no
// LinkGraph is produced in that case. Every other failure degrades the
// graph in the documented ways (spec.md §7) and never surfaces as an error
// here.
func (e *Engine) Analyze(rootPath, sysroot string) (*model.LinkGraph, error) {
	root, err := elfimage.Decode(rootPath)
	if err != nil {
		return nil, fmt.Errorf("engine: analyzing %s: %w", rootPath, err)
	}

	if !root.IsDynamic() {
		return model.NewLinkGraph(root, nil, nil, unresolvedOf(root, nil, nil)), nil
	}

	path := searchpath.Compose(sysroot, root)
	deps := resolve.Walk(path, root)

	for _, d := range deps {
		if d.Image == nil {
			e.logf("dependency %s: not found on search path\n", d.Name)
		}
	}

	resolvedImages := make([]*model.ImageSummary, 0, len(deps))
	for _, d := range deps {
		if d.Image != nil {
			resolvedImages = append(resolvedImages, d.Image)
		}
	}

	providerOf := e.linkClosure(root, deps, resolvedImages)
	unresolved := unresolvedOf(root, deps, providerOf)

	providers := make([]model.ProviderEntry, 0, len(providerOf))
	for sym, img := range providerOf {
		providers = append(providers, model.ProviderEntry{Symbol: sym, Provider: img})
	}
	model.SortProviders(providers)

	return model.NewLinkGraph(root, deps, providers, unresolved), nil
}

// linkClosure runs the SymbolLinker once over root's imports and once per
// resolved dependency's imports (the loader's closure-level view), merging
// every resulting map into one. deps is already sorted by needed-name
// (resolve.Walk's contract), so merges happen in that order; the later
// merge wins on any colliding symbol.
func (e *Engine) linkClosure(root *model.ImageSummary, deps []model.DependencyEntry, resolvedImages []*model.ImageSummary) map[model.VersionedSymbol]*model.ImageSummary {
	merged := make(map[model.VersionedSymbol]*model.ImageSummary)

	merge := func(imports []model.ImportedSymbol) {
		for sym, img := range linker.Link(imports, resolvedImages) {
			merged[sym] = img
		}
	}

	merge(root.Dynamic.Imports)
	for _, d := range deps {
		if d.Image.IsDynamic() {
			merge(d.Image.Dynamic.Imports)
		}
	}

	return merged
}

func unresolvedOf(root *model.ImageSummary, deps []model.DependencyEntry, providerOf map[model.VersionedSymbol]*model.ImageSummary) []model.VersionedSymbol {
	seen := make(map[model.VersionedSymbol]bool)
	var out []model.VersionedSymbol

	add := func(imports []model.ImportedSymbol) {
		for _, imp := range imports {
			if providerOf[imp.Symbol] != nil {
				continue
			}
			if seen[imp.Symbol] {
				continue
			}
			seen[imp.Symbol] = true
			out = append(out, imp.Symbol)
		}
	}

	if root.IsDynamic() {
		add(root.Dynamic.Imports)
	}
	for _, d := range deps {
		if d.Image.IsDynamic() {
			add(d.Image.Dynamic.Imports)
		}
	}

	model.SortSymbols(out)
	return out
}
