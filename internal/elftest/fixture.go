// Package elftest builds minimal, synthetic ELF images in memory for tests
// across the engine's packages. It exists purely to give elfimage, resolve,
// and engine tests a shared, dependency-free way to construct
// fixtures without shelling out to a real linker or vendoring prebuilt
// binaries.
package elftest

import (
	"bytes"
	"encoding/binary"
)

// ExportSym describes one exported dynamic symbol to bake into a fixture.
type ExportSym struct {
	Name  string
	Kind  uint8 // STT_* value
	Bind  uint8 // STB_* value
	Value uint64
	Size  uint64
}

// ImportSym describes one imported (undefined) dynamic symbol.
type ImportSym struct {
	Name string
	Kind uint8
	Bind uint8
}

// Spec describes the dynamic-linking shape of a fixture image.
type Spec struct {
	BigEndian bool
	Class32   bool
	Machine   uint16 // elf.EM_* value; ignored if zero (defaults to EM_X86_64)
	Needed    []string
	Imports   []ImportSym
	Exports   []ExportSym
	// InvalidNeeded, if true, appends one DT_NEEDED entry pointing at a
	// byte sequence that is not valid UTF-8.
	InvalidNeeded bool
}

const (
	emX8664 = 0x3e

	shtNull    = 0
	shtStrtab  = 3
	shtDynamic = 6
	shtDynsym  = 11

	dtNeeded = 1
	dtNull   = 0

	shnUndef = 0
)

// Build renders spec as a complete ELF64 (or ELF32, per Class32) image:
// header, a dynamic symbol table, a dynamic string table, and a .dynamic
// section wired together exactly the way the real format expects (each
// section's sh_link pointing at its string table), enough for debug/elf's
// reader to recover DT_NEEDED and the dynamic symbol table. A spec with no
// needed names, imports, exports, or InvalidNeeded entry renders only the
// header and .shstrtab, i.e. a static image.
func Build(spec Spec) []byte {
	if spec.Class32 {
		return build32(spec)
	}
	return build64(spec)
}

// StaticImage renders a minimal ELF64 image with no dynamic section at all.
func StaticImage(bigEndian bool) []byte {
	return build64(Spec{BigEndian: bigEndian})
}

type strtab struct {
	buf    bytes.Buffer
	offset map[string]uint32
}

func newStrtab() *strtab {
	st := &strtab{offset: make(map[string]uint32)}
	st.buf.WriteByte(0) // index 0 is always the empty string
	return st
}

func (st *strtab) add(s string) uint32 {
	if s == "" {
		return 0
	}
	if off, ok := st.offset[s]; ok {
		return off
	}
	off := uint32(st.buf.Len())
	st.offset[s] = off
	st.buf.WriteString(s)
	st.buf.WriteByte(0)
	return off
}

// addRaw appends raw (possibly invalid-UTF-8) bytes as a null-terminated
// entry and returns its offset, bypassing the string interning above.
func (st *strtab) addRaw(raw []byte) uint32 {
	off := uint32(st.buf.Len())
	st.buf.Write(raw)
	st.buf.WriteByte(0)
	return off
}

func build64(spec Spec) []byte {
	order := byteOrder(spec.BigEndian)
	machine := spec.Machine
	if machine == 0 {
		machine = emX8664
	}

	dynstr := newStrtab()
	var dynsymEntries bytes.Buffer
	var dynamicEntries bytes.Buffer

	hasDynamic := len(spec.Needed) > 0 || len(spec.Imports) > 0 || len(spec.Exports) > 0 || spec.InvalidNeeded

	if hasDynamic {
		// Null symbol, index 0.
		writeSym64(&dynsymEntries, order, 0, 0, 0, shnUndef, 0, 0)

		for _, imp := range spec.Imports {
			nameOff := dynstr.add(imp.Name)
			info := (imp.Bind << 4) | (imp.Kind & 0xf)
			writeSym64(&dynsymEntries, order, nameOff, info, 0, shnUndef, 0, 0)
		}
		for _, exp := range spec.Exports {
			nameOff := dynstr.add(exp.Name)
			info := (exp.Bind << 4) | (exp.Kind & 0xf)
			writeSym64(&dynsymEntries, order, nameOff, info, 0, 1, exp.Value, exp.Size)
		}

		for _, need := range spec.Needed {
			off := dynstr.add(need)
			writeDyn64(&dynamicEntries, order, dtNeeded, uint64(off))
		}
		if spec.InvalidNeeded {
			off := dynstr.addRaw([]byte{0xff, 0xfe, 0x80})
			writeDyn64(&dynamicEntries, order, dtNeeded, uint64(off))
		}
		writeDyn64(&dynamicEntries, order, dtNull, 0)
	}

	shstrtab := newStrtab()
	nameDynstr := shstrtab.add(".dynstr")
	nameDynsym := shstrtab.add(".dynsym")
	nameDynamic := shstrtab.add(".dynamic")
	nameShstrtab := shstrtab.add(".shstrtab")

	const ehdrSize = 64
	const shdrSize = 64

	type sectionLayout struct {
		name, typ      uint32
		link, info     uint32
		entsize        uint64
		data           []byte
		addralign      uint64
	}

	var sections []sectionLayout
	sections = append(sections, sectionLayout{}) // NULL section, index 0

	dynstrIdx := uint32(0)
	if hasDynamic {
		dynstrIdx = uint32(len(sections))
		sections = append(sections, sectionLayout{name: nameDynstr, typ: shtStrtab, data: dynstr.buf.Bytes(), addralign: 1})

		sections = append(sections, sectionLayout{
			name: nameDynsym, typ: shtDynsym, link: dynstrIdx, entsize: 24,
			data: dynsymEntries.Bytes(), addralign: 8,
		})

		sections = append(sections, sectionLayout{
			name: nameDynamic, typ: shtDynamic, link: dynstrIdx, entsize: 16,
			data: dynamicEntries.Bytes(), addralign: 8,
		})
	}
	shstrtabIdx := uint32(len(sections))
	sections = append(sections, sectionLayout{name: nameShstrtab, typ: shtStrtab, data: shstrtab.buf.Bytes(), addralign: 1})

	// Lay out section contents after the header; offsets don't need to be
	// realistic, only internally consistent.
	offset := uint64(ehdrSize)
	offsets := make([]uint64, len(sections))
	for i, s := range sections {
		offsets[i] = offset
		offset += uint64(len(s.data))
	}
	shoff := offset

	var out bytes.Buffer
	writeIdent(&out, spec.BigEndian, false)
	writeU16(&out, order, 3) // e_type = ET_DYN
	writeU16(&out, order, machine)
	writeU32(&out, order, 1) // e_version
	writeU64(&out, order, 0) // e_entry
	writeU64(&out, order, 0) // e_phoff
	writeU64(&out, order, shoff)
	writeU32(&out, order, 0) // e_flags
	writeU16(&out, order, ehdrSize)
	writeU16(&out, order, 56) // e_phentsize (unused, no program headers)
	writeU16(&out, order, 0)  // e_phnum
	writeU16(&out, order, shdrSize)
	writeU16(&out, order, uint16(len(sections)))
	writeU16(&out, order, uint16(shstrtabIdx))

	for _, s := range sections {
		out.Write(s.data)
	}

	for i, s := range sections {
		writeU32(&out, order, s.name)
		writeU32(&out, order, s.typ)
		writeU64(&out, order, 0) // sh_flags
		writeU64(&out, order, 0) // sh_addr
		writeU64(&out, order, offsets[i])
		writeU64(&out, order, uint64(len(s.data)))
		writeU32(&out, order, s.link)
		writeU32(&out, order, s.info)
		writeU64(&out, order, s.addralign)
		writeU64(&out, order, s.entsize)
	}

	return out.Bytes()
}

// build32 mirrors build64 at 32-bit width, for the bit-width round-trip
// property in spec.md §8.
func build32(spec Spec) []byte {
	order := byteOrder(spec.BigEndian)
	machine := spec.Machine
	if machine == 0 {
		machine = emX8664
	}

	dynstr := newStrtab()
	var dynsymEntries bytes.Buffer
	var dynamicEntries bytes.Buffer

	hasDynamic := len(spec.Needed) > 0 || len(spec.Imports) > 0 || len(spec.Exports) > 0 || spec.InvalidNeeded

	if hasDynamic {
		writeSym32(&dynsymEntries, order, 0, 0, 0, shnUndef, 0, 0)
		for _, imp := range spec.Imports {
			nameOff := dynstr.add(imp.Name)
			info := (imp.Bind << 4) | (imp.Kind & 0xf)
			writeSym32(&dynsymEntries, order, nameOff, info, 0, shnUndef, 0, 0)
		}
		for _, exp := range spec.Exports {
			nameOff := dynstr.add(exp.Name)
			info := (exp.Bind << 4) | (exp.Kind & 0xf)
			writeSym32(&dynsymEntries, order, nameOff, info, 0, 1, uint32(exp.Value), uint32(exp.Size))
		}
		for _, need := range spec.Needed {
			off := dynstr.add(need)
			writeDyn32(&dynamicEntries, order, dtNeeded, off)
		}
		if spec.InvalidNeeded {
			off := dynstr.addRaw([]byte{0xff, 0xfe, 0x80})
			writeDyn32(&dynamicEntries, order, dtNeeded, off)
		}
		writeDyn32(&dynamicEntries, order, dtNull, 0)
	}

	shstrtab := newStrtab()
	nameDynstr := shstrtab.add(".dynstr")
	nameDynsym := shstrtab.add(".dynsym")
	nameDynamic := shstrtab.add(".dynamic")
	nameShstrtab := shstrtab.add(".shstrtab")

	const ehdrSize = 52
	const shdrSize = 40

	type sectionLayout struct {
		name, typ  uint32
		link, info uint32
		entsize    uint32
		data       []byte
		addralign  uint32
	}

	var sections []sectionLayout
	sections = append(sections, sectionLayout{})

	dynstrIdx := uint32(0)
	if hasDynamic {
		dynstrIdx = uint32(len(sections))
		sections = append(sections, sectionLayout{name: nameDynstr, typ: shtStrtab, data: dynstr.buf.Bytes(), addralign: 1})
		sections = append(sections, sectionLayout{name: nameDynsym, typ: shtDynsym, link: dynstrIdx, entsize: 16, data: dynsymEntries.Bytes(), addralign: 4})
		sections = append(sections, sectionLayout{name: nameDynamic, typ: shtDynamic, link: dynstrIdx, entsize: 8, data: dynamicEntries.Bytes(), addralign: 4})
	}
	shstrtabIdx := uint32(len(sections))
	sections = append(sections, sectionLayout{name: nameShstrtab, typ: shtStrtab, data: shstrtab.buf.Bytes(), addralign: 1})

	offset := uint32(ehdrSize)
	offsets := make([]uint32, len(sections))
	for i, s := range sections {
		offsets[i] = offset
		offset += uint32(len(s.data))
	}
	shoff := offset

	var out bytes.Buffer
	writeIdent(&out, spec.BigEndian, true)
	writeU16(&out, order, 3)
	writeU16(&out, order, machine)
	writeU32(&out, order, 1)
	writeU32(&out, order, 0) // e_entry
	writeU32(&out, order, 0) // e_phoff
	writeU32(&out, order, shoff)
	writeU32(&out, order, 0) // e_flags
	writeU16(&out, order, ehdrSize)
	writeU16(&out, order, 32) // e_phentsize
	writeU16(&out, order, 0)
	writeU16(&out, order, shdrSize)
	writeU16(&out, order, uint16(len(sections)))
	writeU16(&out, order, uint16(shstrtabIdx))

	for _, s := range sections {
		out.Write(s.data)
	}

	for i, s := range sections {
		writeU32(&out, order, s.name)
		writeU32(&out, order, s.typ)
		writeU32(&out, order, 0) // sh_flags
		writeU32(&out, order, 0) // sh_addr
		writeU32(&out, order, offsets[i])
		writeU32(&out, order, uint32(len(s.data)))
		writeU32(&out, order, s.link)
		writeU32(&out, order, s.info)
		writeU32(&out, order, s.addralign)
		writeU32(&out, order, s.entsize)
	}

	return out.Bytes()
}

func byteOrder(big bool) binary.ByteOrder {
	if big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func writeIdent(buf *bytes.Buffer, bigEndian, class32 bool) {
	ident := make([]byte, 16)
	ident[0], ident[1], ident[2], ident[3] = 0x7f, 'E', 'L', 'F'
	if class32 {
		ident[4] = 1
	} else {
		ident[4] = 2
	}
	if bigEndian {
		ident[5] = 2
	} else {
		ident[5] = 1
	}
	ident[6] = 1 // EI_VERSION
	buf.Write(ident)
}

func writeU16(buf *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var b [2]byte
	order.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, order binary.ByteOrder, v uint64) {
	var b [8]byte
	order.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeSym64(buf *bytes.Buffer, order binary.ByteOrder, name uint32, info, other uint8, shndx uint16, value, size uint64) {
	writeU32(buf, order, name)
	buf.WriteByte(info)
	buf.WriteByte(other)
	writeU16(buf, order, shndx)
	writeU64(buf, order, value)
	writeU64(buf, order, size)
}

func writeSym32(buf *bytes.Buffer, order binary.ByteOrder, name uint32, info, other uint8, shndx uint16, value, size uint32) {
	writeU32(buf, order, name)
	writeU32(buf, order, value)
	writeU32(buf, order, size)
	buf.WriteByte(info)
	buf.WriteByte(other)
	writeU16(buf, order, shndx)
}

func writeDyn64(buf *bytes.Buffer, order binary.ByteOrder, tag int64, val uint64) {
	writeU64(buf, order, uint64(tag))
	writeU64(buf, order, val)
}

func writeDyn32(buf *bytes.Buffer, order binary.ByteOrder, tag int32, val uint32) {
	writeU32(buf, order, uint32(tag))
	writeU32(buf, order, val)
}
