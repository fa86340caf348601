// Package fdt builds and reads Flattened Device Tree (FDT) blobs.
package fdt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

const (
	fdtMagic       = 0xd00dfeed
	fdtVersion     = 17
	fdtLastCompVer = 16
	fdtHeaderSize  = 40

	fdtBeginNodeToken = 0x1
	fdtEndNodeToken   = 0x2
	fdtPropToken      = 0x3
	fdtNopToken       = 0x4
	fdtEndToken       = 0x9
)

// Builder constructs a Flattened Device Tree blob.
type Builder struct {
	structure bytes.Buffer
	strings   bytes.Buffer
	stringOff map[string]uint32
}

// NewBuilder creates a new FDT builder.
func NewBuilder() *Builder {
	return &Builder{
		stringOff: make(map[string]uint32),
	}
}

// BeginNode starts a new node with the given name.
func (b *Builder) BeginNode(name string) {
	b.putU32(fdtBeginNodeToken)
	b.structure.WriteString(name)
	b.structure.WriteByte(0)
	b.pad()
}

// EndNode ends the current node.
func (b *Builder) EndNode() {
	b.putU32(fdtEndNodeToken)
}

// AddPropertyEmpty adds an empty property.
func (b *Builder) AddPropertyEmpty(name string) {
	b.prop(name, nil)
}

// AddPropertyString adds a string property.
func (b *Builder) AddPropertyString(name, value string) {
	b.prop(name, append([]byte(value), 0))
}

// AddPropertyStringList adds a string list property.
func (b *Builder) AddPropertyStringList(name string, values []string) {
	var data []byte
	for _, v := range values {
		data = append(data, v...)
		data = append(data, 0)
	}
	b.prop(name, data)
}

// AddPropertyU32 adds a 32-bit unsigned integer property.
func (b *Builder) AddPropertyU32(name string, value uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], value)
	b.prop(name, tmp[:])
}

// AddPropertyU32Array adds an array of 32-bit unsigned integers.
func (b *Builder) AddPropertyU32Array(name string, values []uint32) {
	data := make([]byte, 0, len(values)*4)
	for _, v := range values {
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], v)
		data = append(data, tmp[:]...)
	}
	b.prop(name, data)
}

// AddPropertyU64 adds a 64-bit unsigned integer property.
func (b *Builder) AddPropertyU64(name string, value uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], value)
	b.prop(name, tmp[:])
}

// AddPropertyU64Array adds an array of 64-bit values (e.g., for reg
// properties with 2/2 address and size cells).
func (b *Builder) AddPropertyU64Array(name string, values []uint64) {
	data := make([]byte, 0, len(values)*8)
	for _, v := range values {
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], v)
		data = append(data, tmp[:]...)
	}
	b.prop(name, data)
}

// AddPropertyBytes adds a raw bytes property.
func (b *Builder) AddPropertyBytes(name string, data []byte) {
	b.prop(name, data)
}

// AddNode recursively emits a Node tree.
func (b *Builder) AddNode(n Node) error {
	b.BeginNode(n.Name)

	if len(n.Properties) > 0 {
		keys := make([]string, 0, len(n.Properties))
		for name := range n.Properties {
			keys = append(keys, name)
		}
		sort.Strings(keys)
		for _, name := range keys {
			if err := b.addProperty(name, n.Properties[name]); err != nil {
				return err
			}
		}
	}

	for _, child := range n.Children {
		if err := b.AddNode(child); err != nil {
			return err
		}
	}

	b.EndNode()
	return nil
}

func (b *Builder) addProperty(name string, prop Property) error {
	if prop.DefinedCount() == 0 {
		return fmt.Errorf("fdt: property %q has no values", name)
	}
	if prop.DefinedCount() > 1 {
		return fmt.Errorf("fdt: property %q has multiple value kinds", name)
	}
	switch prop.Kind() {
	case "strings":
		b.AddPropertyStringList(name, prop.Strings)
	case "u32":
		b.AddPropertyU32Array(name, prop.U32)
	case "u64":
		b.AddPropertyU64Array(name, prop.U64)
	case "bytes":
		b.AddPropertyBytes(name, prop.Bytes)
	case "flag":
		b.AddPropertyEmpty(name)
	default:
		return fmt.Errorf("fdt: property %q has unsupported kind %q", name, prop.Kind())
	}
	return nil
}

// Build generates the final FDT blob.
func (b *Builder) Build() []byte {
	b.putU32(fdtEndToken)
	b.pad()

	structBytes := b.structure.Bytes()
	stringsBytes := b.strings.Bytes()

	// One empty memory reservation entry.
	memRsvmapSize := 16

	offMemRsvmap := fdtHeaderSize
	offStruct := offMemRsvmap + memRsvmapSize
	offStrings := offStruct + len(structBytes)
	totalSize := offStrings + len(stringsBytes)

	blob := make([]byte, totalSize)
	header := blob[:fdtHeaderSize]
	binary.BigEndian.PutUint32(header[0:4], fdtMagic)
	binary.BigEndian.PutUint32(header[4:8], uint32(totalSize))
	binary.BigEndian.PutUint32(header[8:12], uint32(offStruct))
	binary.BigEndian.PutUint32(header[12:16], uint32(offStrings))
	binary.BigEndian.PutUint32(header[16:20], uint32(offMemRsvmap))
	binary.BigEndian.PutUint32(header[20:24], fdtVersion)
	binary.BigEndian.PutUint32(header[24:28], fdtLastCompVer)
	binary.BigEndian.PutUint32(header[28:32], 0) // boot_cpuid_phys
	binary.BigEndian.PutUint32(header[32:36], uint32(len(stringsBytes)))
	binary.BigEndian.PutUint32(header[36:40], uint32(len(structBytes)))

	copy(blob[offStruct:], structBytes)
	copy(blob[offStrings:], stringsBytes)

	return blob
}

// Build serializes the provided node tree into an FDT blob.
func Build(root Node) ([]byte, error) {
	b := NewBuilder()
	if err := b.AddNode(root); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func (b *Builder) prop(name string, value []byte) {
	b.putU32(fdtPropToken)
	b.putU32(uint32(len(value)))
	b.putU32(b.stringOffset(name))
	b.structure.Write(value)
	b.pad()
}

func (b *Builder) stringOffset(name string) uint32 {
	if off, ok := b.stringOff[name]; ok {
		return off
	}
	off := uint32(b.strings.Len())
	b.strings.WriteString(name)
	b.strings.WriteByte(0)
	b.stringOff[name] = off
	return off
}

func (b *Builder) putU32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.structure.Write(tmp[:])
}

func (b *Builder) pad() {
	for b.structure.Len()%4 != 0 {
		b.structure.WriteByte(0)
	}
}
