// Command linkgraph inspects an ELF binary or shared library, resolves its
// transitive shared-library dependencies, and prints the resulting link
// graph as plain text.
//
// Presentation and interactive browsing are external-collaborator concerns
// (see spec.md §1); this binary is a minimal, non-interactive consumer of
// the engine, the same relationship the original project's src/main.rs had
// to its library modules.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/linkgraph/internal/engine"
	"github.com/xyproto/linkgraph/internal/searchpath"
)

func main() {
	var (
		sysroot     = flag.String("sysroot", "/", "root directory search-path defaults are computed under")
		verbose     = flag.Bool("verbose", false, "print diagnostic lines to stderr as resolution proceeds")
		interactive = flag.Bool("interactive", false, "(unsupported) select interactive rendering")
	)
	flag.Parse()

	if *interactive {
		fmt.Fprintln(os.Stderr, "linkgraph: interactive rendering is not implemented; omit --interactive for plain text")
		os.Exit(1)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: linkgraph [--sysroot DIR] [--verbose] <path>")
		os.Exit(1)
	}
	rootPath := flag.Arg(0)

	e := engine.New()
	if *verbose {
		e.Verbose = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format, args...)
		}
	}

	graph, err := e.Analyze(rootPath, *sysroot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "linkgraph: %v\n", err)
		os.Exit(1)
	}

	render(os.Stdout, graph)

	if *verbose {
		path := searchpath.Compose(*sysroot, graph.Root)
		for _, dep := range graph.Dependencies {
			if dep.Image != nil {
				continue
			}
			if guess := engine.SuggestLibrary(dep.Name, path); guess != "" {
				fmt.Fprintf(os.Stderr, "linkgraph: %s not found, did you mean %s?\n", dep.Name, guess)
			}
		}
	}
}
