package model

import "sort"

// DependencyEntry is one resolved (or unresolved) DT_NEEDED edge.
// Image is nil iff no search-path directory contained a readable ELF at
// that needed-name.
type DependencyEntry struct {
	Name  string
	Image *ImageSummary
}

// ProviderEntry is the resolution of one imported symbol to the dependency
// image whose exports satisfy it.
type ProviderEntry struct {
	Symbol   VersionedSymbol
	Provider *ImageSummary
}

// Stats is a read-only snapshot of a LinkGraph's resolution counts, handed
// to callers (CLIs, future renderers) so they don't need to recompute totals
// by walking the graph themselves.
//
// TotalImports, ResolvedImports, and UnresolvedImportsCount all count
// distinct VersionedSymbols (by name and version), not raw occurrences: an
// import satisfied identically by two images (root and a dependency, say)
// counts once. TotalImports == ResolvedImports + UnresolvedImportsCount.
type Stats struct {
	TotalDependencies      int
	ResolvedDependencies   int
	UnresolvedDependencies int
	TotalImports           int
	ResolvedImports        int
	UnresolvedImportsCount int
}

// LinkGraph is the assembled output of the engine: the root image, its
// transitively-discovered dependencies (keyed by needed-name, each
// appearing at most once), and the provider of every imported symbol that
// could be resolved.
type LinkGraph struct {
	Root *ImageSummary

	// Dependencies is sorted lexicographically by Name. Every DT_NEEDED
	// name reachable from Root, directly or transitively, appears exactly
	// once, regardless of how many images requested it.
	Dependencies []DependencyEntry

	// ProviderOf is sorted by (Symbol.Name, Symbol.Version). Its keys are
	// drawn from the union of Root's imports and every resolved
	// dependency's imports.
	ProviderOf []ProviderEntry

	// Unresolved is the sorted list of imported symbols (from Root and
	// every resolved dependency) with no entry in ProviderOf.
	Unresolved []VersionedSymbol

	Stats Stats

	depIndex      map[string]*ImageSummary
	providerIndex map[VersionedSymbol]*ImageSummary
}

// NewLinkGraph builds a LinkGraph from already-sorted dependency and
// provider slices and the caller's Unresolved list, deriving Stats and the
// lookup indexes.
func NewLinkGraph(root *ImageSummary, deps []DependencyEntry, providers []ProviderEntry, unresolved []VersionedSymbol) *LinkGraph {
	g := &LinkGraph{
		Root:          root,
		Dependencies:  deps,
		ProviderOf:    providers,
		Unresolved:    unresolved,
		depIndex:      make(map[string]*ImageSummary, len(deps)),
		providerIndex: make(map[VersionedSymbol]*ImageSummary, len(providers)),
	}
	resolvedDeps := 0
	for _, d := range deps {
		g.depIndex[d.Name] = d.Image
		if d.Image != nil {
			resolvedDeps++
		}
	}
	for _, p := range providers {
		g.providerIndex[p.Symbol] = p.Provider
	}

	uniqueImports := make(map[VersionedSymbol]bool)
	if root.IsDynamic() {
		for _, imp := range root.Dynamic.Imports {
			uniqueImports[imp.Symbol] = true
		}
	}
	for _, d := range deps {
		if d.Image.IsDynamic() {
			for _, imp := range d.Image.Dynamic.Imports {
				uniqueImports[imp.Symbol] = true
			}
		}
	}
	totalImports := len(uniqueImports)

	g.Stats = Stats{
		TotalDependencies:      len(deps),
		ResolvedDependencies:   resolvedDeps,
		UnresolvedDependencies: len(deps) - resolvedDeps,
		TotalImports:           totalImports,
		ResolvedImports:        len(providers),
		UnresolvedImportsCount: len(unresolved),
	}
	return g
}

// Dependency looks up a resolved dependency by needed-name. ok is false if
// the name was never part of the walk at all; a name that was probed but
// never found reports ok == true with a nil image.
func (g *LinkGraph) Dependency(name string) (img *ImageSummary, ok bool) {
	if g == nil {
		return nil, false
	}
	img, ok = g.depIndex[name]
	return img, ok
}

// Provider looks up the image providing a given symbol, if any was resolved.
func (g *LinkGraph) Provider(sym VersionedSymbol) (*ImageSummary, bool) {
	if g == nil {
		return nil, false
	}
	img, ok := g.providerIndex[sym]
	return img, ok
}

// SortDependencies sorts entries lexicographically by Name in place.
func SortDependencies(entries []DependencyEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

// SortProviders sorts entries by (Symbol.Name, Symbol.Version) in place.
func SortProviders(entries []ProviderEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Symbol.Less(entries[j].Symbol) })
}

// SortSymbols sorts a VersionedSymbol slice by (Name, Version) in place.
func SortSymbols(syms []VersionedSymbol) {
	sort.Slice(syms, func(i, j int) bool { return syms[i].Less(syms[j]) })
}
