package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xyproto/linkgraph/internal/model"
)

// render prints graph as plain text: a file-identification line, the
// dependency list, and a table of unresolved imports. It is modeled on the
// original project's main.rs println!/term_table sequence, with
// text/tabwriter standing in for term_table — no table-rendering library
// appears anywhere in the example pack to ground a dependency choice on
// (see DESIGN.md).
func render(w io.Writer, graph *model.LinkGraph) {
	root := graph.Root
	fmt.Fprintf(w, "%s is a %d-bit %s-endian %s ELF file\n", root.Path, root.PointerWidth, root.ByteOrder, root.Machine)

	if !root.IsDynamic() {
		fmt.Fprintln(w, "  static")
		return
	}

	fmt.Fprintln(w, "  dynamically linked against:")
	for _, dep := range graph.Dependencies {
		if dep.Image == nil {
			fmt.Fprintf(w, "    %s -> unresolved\n", dep.Name)
			continue
		}
		fmt.Fprintf(w, "    %s -> %s\n", dep.Name, dep.Image.Path)
	}

	fmt.Fprintf(w, "  resolved %d/%d imported symbols across %d dependencies (%d unresolved)\n",
		graph.Stats.ResolvedImports, graph.Stats.TotalImports,
		graph.Stats.TotalDependencies, graph.Stats.UnresolvedDependencies)

	if len(graph.Unresolved) == 0 {
		return
	}

	fmt.Fprintln(w, "  unresolved symbols:")
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "    NAME\tVERSION")
	for _, sym := range graph.Unresolved {
		version := sym.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(tw, "    %s\t%s\n", sym.Name, version)
	}
	tw.Flush()
}
