package searchpath

import (
	"path/filepath"
	"testing"
)

func TestComposeDefaultsUnderSysroot(t *testing.T) {
	t.Setenv(envLDLibraryPath, "")

	dirs := Compose("/sysroot", nil)
	want := []string{
		filepath.Join("/sysroot", "lib"),
		filepath.Join("/sysroot", "lib64"),
		filepath.Join("/sysroot", "usr", "lib"),
		filepath.Join("/sysroot", "usr", "lib64"),
	}
	if len(dirs) != len(want) {
		t.Fatalf("Compose = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Fatalf("Compose[%d] = %q, want %q", i, dirs[i], want[i])
		}
	}
}

func TestComposePrefersLDLibraryPath(t *testing.T) {
	t.Setenv(envLDLibraryPath, "/opt/a:/opt/b")

	dirs := Compose("/sysroot", nil)
	if len(dirs) < 2 || dirs[0] != "/opt/a" || dirs[1] != "/opt/b" {
		t.Fatalf("Compose = %v, want it to start with the LD_LIBRARY_PATH entries", dirs)
	}
	if dirs[len(dirs)-1] != filepath.Join("/sysroot", "usr", "lib64") {
		t.Fatalf("Compose = %v, want the sysroot defaults to follow", dirs)
	}
}
