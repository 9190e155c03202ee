package elfimage

import (
	"os"
	"path/filepath"
	"testing"

	stdelf "debug/elf"

	"github.com/xyproto/linkgraph/internal/elftest"
	"github.com/xyproto/linkgraph/internal/model"
)

func writeFixture(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.so")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestDecodeStaticImage(t *testing.T) {
	path := writeFixture(t, elftest.StaticImage(false))

	summary, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if summary.Variant != model.Static {
		t.Fatalf("Variant = %v, want Static", summary.Variant)
	}
	if summary.Dynamic != nil {
		t.Fatalf("Dynamic = %+v, want nil for a static image", summary.Dynamic)
	}
	if summary.IsDynamic() {
		t.Fatalf("IsDynamic() = true, want false")
	}
}

func TestDecodeDynamicImage(t *testing.T) {
	spec := elftest.Spec{
		Needed: []string{"libc.so.6", "libm.so.6"},
		Imports: []elftest.ImportSym{
			{Name: "printf", Kind: uint8(stdelf.STT_FUNC), Bind: uint8(stdelf.STB_GLOBAL)},
		},
		Exports: []elftest.ExportSym{
			{Name: "my_entry", Kind: uint8(stdelf.STT_FUNC), Bind: uint8(stdelf.STB_GLOBAL), Value: 0x1000, Size: 32},
		},
	}
	path := writeFixture(t, elftest.Build(spec))

	summary, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if summary.Variant != model.Dynamic || !summary.IsDynamic() {
		t.Fatalf("expected a dynamic image, got Variant=%v", summary.Variant)
	}
	if got, want := summary.Dynamic.Needed, spec.Needed; !stringSliceEqual(got, want) {
		t.Fatalf("Needed = %v, want %v", got, want)
	}
	if len(summary.Dynamic.Imports) != 1 || summary.Dynamic.Imports[0].Symbol.Name != "printf" {
		t.Fatalf("Imports = %+v, want one import named printf", summary.Dynamic.Imports)
	}
	if len(summary.Dynamic.Exports) != 1 || summary.Dynamic.Exports[0].Symbol.Name != "my_entry" {
		t.Fatalf("Exports = %+v, want one export named my_entry", summary.Dynamic.Exports)
	}
	if summary.Dynamic.Exports[0].Value != 0x1000 {
		t.Fatalf("Exports[0].Value = %#x, want 0x1000", summary.Dynamic.Exports[0].Value)
	}
}

// TestDecodeEndiannessRoundTrip exercises the same dynamic-linking shape
// encoded both little- and big-endian, matching spec.md §8's endianness
// round-trip property: two images that differ only in byte order decode to
// identical dependency and symbol data.
func TestDecodeEndiannessRoundTrip(t *testing.T) {
	spec := elftest.Spec{
		Needed: []string{"libz.so.1"},
		Exports: []elftest.ExportSym{
			{Name: "compress", Kind: uint8(stdelf.STT_FUNC), Bind: uint8(stdelf.STB_GLOBAL), Value: 0x400, Size: 8},
		},
	}

	little := spec
	little.BigEndian = false
	big := spec
	big.BigEndian = true
	big.Machine = 0 // EM_X86_64 has no big-endian meaning in practice, but the header bytes still round-trip

	leSummary, err := Decode(writeFixture(t, elftest.Build(little)))
	if err != nil {
		t.Fatalf("Decode(little): %v", err)
	}
	beSummary, err := Decode(writeFixture(t, elftest.Build(big)))
	if err != nil {
		t.Fatalf("Decode(big): %v", err)
	}

	if leSummary.ByteOrder != model.LittleEndian {
		t.Fatalf("leSummary.ByteOrder = %v, want LittleEndian", leSummary.ByteOrder)
	}
	if beSummary.ByteOrder != model.BigEndian {
		t.Fatalf("beSummary.ByteOrder = %v, want BigEndian", beSummary.ByteOrder)
	}
	if !stringSliceEqual(leSummary.Dynamic.Needed, beSummary.Dynamic.Needed) {
		t.Fatalf("Needed differs across byte order: %v vs %v", leSummary.Dynamic.Needed, beSummary.Dynamic.Needed)
	}
	if leSummary.Dynamic.Exports[0].Symbol.Name != beSummary.Dynamic.Exports[0].Symbol.Name {
		t.Fatalf("export name differs across byte order")
	}
}

// TestDecodeBitWidthRoundTrip covers spec.md §8's bit-width round-trip
// property for an identical dependency shape encoded as ELF32 and ELF64.
func TestDecodeBitWidthRoundTrip(t *testing.T) {
	spec := elftest.Spec{
		Needed: []string{"libssl.so.3"},
	}

	s32 := spec
	s32.Class32 = true
	s64 := spec

	summary32, err := Decode(writeFixture(t, elftest.Build(s32)))
	if err != nil {
		t.Fatalf("Decode(32-bit): %v", err)
	}
	summary64, err := Decode(writeFixture(t, elftest.Build(s64)))
	if err != nil {
		t.Fatalf("Decode(64-bit): %v", err)
	}

	if summary32.PointerWidth != 32 {
		t.Fatalf("PointerWidth = %d, want 32", summary32.PointerWidth)
	}
	if summary64.PointerWidth != 64 {
		t.Fatalf("PointerWidth = %d, want 64", summary64.PointerWidth)
	}
	if !stringSliceEqual(summary32.Dynamic.Needed, summary64.Dynamic.Needed) {
		t.Fatalf("Needed differs across bit width: %v vs %v", summary32.Dynamic.Needed, summary64.Dynamic.Needed)
	}
}

func TestDecodeInvalidNeededName(t *testing.T) {
	spec := elftest.Spec{InvalidNeeded: true}
	path := writeFixture(t, elftest.Build(spec))

	_, err := Decode(path)
	if err == nil {
		t.Fatal("Decode: expected an error for a non-UTF-8 DT_NEEDED entry")
	}
}

func TestDecodeNotELF(t *testing.T) {
	path := writeFixture(t, []byte("this is not an ELF file"))

	_, err := Decode(path)
	if err == nil {
		t.Fatal("Decode: expected an error for non-ELF input")
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "does-not-exist.so"))
	if err == nil {
		t.Fatal("Decode: expected an error for a missing file")
	}
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
