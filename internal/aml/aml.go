// Package aml emits ACPI Machine Language for the definition block
// tables. Terms are built bottom up as byte slices and concatenated
// into a table body.
package aml

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// NameSeg pads a name to the fixed 4-character segment form.
func NameSeg(name string) []byte {
	seg := []byte{'_', '_', '_', '_'}
	copy(seg, name)
	return seg
}

// NameString encodes a name path. A leading backslash roots the path
// and dots separate segments.
func NameString(path string) []byte {
	var out bytes.Buffer

	if strings.HasPrefix(path, "\\") {
		out.WriteByte('\\') // RootChar
		path = path[1:]
	}

	segs := strings.Split(path, ".")
	switch len(segs) {
	case 1:
		out.Write(NameSeg(segs[0]))
	case 2:
		out.WriteByte(0x2e) // DualNamePrefix
		out.Write(NameSeg(segs[0]))
		out.Write(NameSeg(segs[1]))
	default:
		out.WriteByte(0x2f) // MultiNamePrefix
		out.WriteByte(byte(len(segs)))
		for _, seg := range segs {
			out.Write(NameSeg(seg))
		}
	}
	return out.Bytes()
}

// pkgLength encodes PkgLength. The value covers the encoding bytes
// themselves, so the width is found iteratively.
func pkgLength(bodyLen int) []byte {
	if bodyLen+1 < 0x40 {
		return []byte{byte(bodyLen + 1)}
	}
	for width := 2; ; width++ {
		total := bodyLen + width
		if total < 1<<(4+8*(width-1)) {
			out := make([]byte, width)
			out[0] = byte((width-1)<<6) | byte(total&0x0F)
			total >>= 4
			for i := 1; i < width; i++ {
				out[i] = byte(total)
				total >>= 8
			}
			return out
		}
	}
}

// wrapPkg emits an opcode with a computed PkgLength and body.
func wrapPkg(opcode byte, opcode2 byte, body []byte) []byte {
	var out bytes.Buffer
	out.WriteByte(opcode)
	if opcode2 != 0x00 {
		out.WriteByte(opcode2)
	}
	out.Write(pkgLength(len(body)))
	out.Write(body)
	return out.Bytes()
}

// Integer encodes a ComputationalData integer with the smallest
// prefix.
func Integer(v uint64) []byte {
	switch {
	case v == 0:
		return []byte{0x00} // ZeroOp
	case v == 1:
		return []byte{0x01} // OneOp
	case v <= 0xFF:
		return []byte{0x0a, byte(v)} // BytePrefix
	case v <= 0xFFFF:
		return binary.LittleEndian.AppendUint16([]byte{0x0b}, uint16(v)) // WordPrefix
	case v <= 0xFFFFFFFF:
		return binary.LittleEndian.AppendUint32([]byte{0x0c}, uint32(v)) // DWordPrefix
	default:
		return binary.LittleEndian.AppendUint64([]byte{0x0e}, v) // QWordPrefix
	}
}

// String encodes a NUL terminated AML string.
func String(s string) []byte {
	out := make([]byte, 0, len(s)+2)
	out = append(out, 0x0d) // StringPrefix
	out = append(out, s...)
	return append(out, 0x00)
}

// EisaID encodes a 7-character EISA ID as its compressed DWord form,
// as used for _HID and _CID values like PNP0A03.
func EisaID(id string) []byte {
	v := uint32(id[0]-0x40)<<26 | uint32(id[1]-0x40)<<21 | uint32(id[2]-0x40)<<16
	hexVal := func(c byte) uint32 {
		if c >= 'A' {
			return uint32(c-'A') + 10
		}
		return uint32(c - '0')
	}
	v |= hexVal(id[3])<<12 | hexVal(id[4])<<8 | hexVal(id[5])<<4 | hexVal(id[6])
	return Integer(uint64(v>>24 | v>>8&0xFF00 | v<<8&0xFF0000 | v<<24))
}

// Name encodes Name(path, value).
func Name(path string, value []byte) []byte {
	var out bytes.Buffer
	out.WriteByte(0x08) // NameOp
	out.Write(NameString(path))
	out.Write(value)
	return out.Bytes()
}

// Device encodes Device(name) { terms }.
func Device(name string, terms ...[]byte) []byte {
	var body bytes.Buffer
	body.Write(NameString(name))
	for _, term := range terms {
		body.Write(term)
	}
	return wrapPkg(0x5b, 0x82, body.Bytes()) // DeviceOp
}

// Scope encodes Scope(path) { terms }.
func Scope(path string, terms ...[]byte) []byte {
	var body bytes.Buffer
	body.Write(NameString(path))
	for _, term := range terms {
		body.Write(term)
	}
	return wrapPkg(0x10, 0x00, body.Bytes()) // ScopeOp
}

// Package encodes Package() { elements }.
func Package(elements ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteByte(byte(len(elements)))
	for _, elem := range elements {
		body.Write(elem)
	}
	return wrapPkg(0x12, 0x00, body.Bytes()) // PackageOp
}

// Buffer encodes Buffer(len(data)) { data }.
func Buffer(data []byte) []byte {
	var body bytes.Buffer
	body.Write(Integer(uint64(len(data))))
	body.Write(data)
	return wrapPkg(0x11, 0x00, body.Bytes()) // BufferOp
}

// ResourceTemplate encodes a _CRS style buffer: the descriptors
// followed by an end tag.
func ResourceTemplate(descriptors ...[]byte) []byte {
	var data bytes.Buffer
	for _, desc := range descriptors {
		data.Write(desc)
	}
	data.Write([]byte{0x79, 0x00}) // EndTag
	return Buffer(data.Bytes())
}
