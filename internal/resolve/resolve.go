// Package resolve performs the breadth-first transitive walk of DT_NEEDED
// dependencies over a search path.
package resolve

import (
	"path/filepath"

	"github.com/xyproto/linkgraph/internal/elfimage"
	"github.com/xyproto/linkgraph/internal/model"
)

// Decode is the probe function used to parse a candidate path. It is a
// variable, not a hard call to elfimage.Decode, purely so tests can swap in
// synthetic fixtures without touching the filesystem.
var Decode = elfimage.Decode

// Walk performs the breadth-first resolution described in spec.md §4.3:
// every DT_NEEDED name reachable from root, directly or transitively, is
// probed against searchPath exactly once. A name is marked seen the moment
// it is enqueued, not when it is resolved, so dependency cycles terminate.
//
// The returned slice is sorted lexicographically by needed-name.
func Walk(searchPath []string, root *model.ImageSummary) []model.DependencyEntry {
	if !root.IsDynamic() {
		return nil
	}

	seen := make(map[string]bool)
	var queue []string
	enqueue := func(names []string) {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				queue = append(queue, name)
			}
		}
	}

	enqueue(root.Dynamic.Needed)

	results := make(map[string]*model.ImageSummary)
	var order []string

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		img, ok := probe(searchPath, name)
		if !ok {
			results[name] = nil
			continue
		}
		results[name] = img
		if img.IsDynamic() {
			enqueue(img.Dynamic.Needed)
		}
	}

	entries := make([]model.DependencyEntry, 0, len(order))
	for _, name := range order {
		entries = append(entries, model.DependencyEntry{Name: name, Image: results[name]})
	}
	model.SortDependencies(entries)
	return entries
}

// probe tries each directory in order, accepting the first one that
// produces a valid ImageSummary. A file that exists but fails to decode is
// treated identically to a missing file: the search continues.
func probe(searchPath []string, name string) (*model.ImageSummary, bool) {
	for _, dir := range searchPath {
		candidate := filepath.Join(dir, name)
		img, err := Decode(candidate)
		if err != nil {
			continue
		}
		return img, true
	}
	return nil, false
}
