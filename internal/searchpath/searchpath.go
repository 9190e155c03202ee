// Package searchpath composes the ordered list of directories probed to
// resolve a DT_NEEDED name, mirroring the system dynamic loader's defaults.
package searchpath

import (
	"path/filepath"

	"github.com/xyproto/env/v2"

	"github.com/xyproto/linkgraph/internal/model"
)

// envLDLibraryPath is the variable consulted first, exactly as the real
// loader does.
const envLDLibraryPath = "LD_LIBRARY_PATH"

// Compose builds the search path for a sysroot and a root image.
//
// root is reserved for a future DT_RPATH/DT_RUNPATH lookup (see the design
// notes' loader-fidelity gaps); it is accepted but not yet consulted, the
// same unused-parameter shape the original Rust search_path function used
// for its own (then-unconsulted) ElfSummary argument.
//
//  1. LD_LIBRARY_PATH, split on the platform list separator, in the order given.
//  2. <sysroot>/lib, <sysroot>/lib64, <sysroot>/usr/lib, <sysroot>/usr/lib64.
func Compose(sysroot string, root *model.ImageSummary) []string {
	_ = root

	var dirs []string

	if raw := env.Str(envLDLibraryPath, ""); raw != "" {
		dirs = append(dirs, filepath.SplitList(raw)...)
	}

	for _, rel := range []string{"lib", "lib64", filepath.Join("usr", "lib"), filepath.Join("usr", "lib64")} {
		dirs = append(dirs, filepath.Join(sysroot, rel))
	}

	return dirs
}
