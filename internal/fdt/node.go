package fdt

// Property describes a single device-tree property in a serialization
// friendly form. Exactly one of the typed fields should be populated for
// a given property.
type Property struct {
	Strings []string `json:"strings,omitempty" yaml:"strings,omitempty"`
	U32     []uint32 `json:"u32,omitempty" yaml:"u32,omitempty"`
	U64     []uint64 `json:"u64,omitempty" yaml:"u64,omitempty"`
	Bytes   []byte   `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Flag    bool     `json:"flag,omitempty" yaml:"flag,omitempty"`
}

// PropString builds a single-string property.
func PropString(v string) Property { return Property{Strings: []string{v}} }

// PropStrings builds a string-list property.
func PropStrings(v ...string) Property { return Property{Strings: v} }

// PropU32 builds a single-cell property.
func PropU32(v uint32) Property { return Property{U32: []uint32{v}} }

// PropU32s builds a cell-array property.
func PropU32s(v ...uint32) Property { return Property{U32: v} }

// PropU64 builds a 64-bit property (two cells).
func PropU64(v uint64) Property { return Property{U64: []uint64{v}} }

// PropReg builds an (address, size) reg property with 2/2 cells.
func PropReg(addr, size uint64) Property { return Property{U64: []uint64{addr, size}} }

// PropFlag builds an empty marker property.
func PropFlag() Property { return Property{Flag: true} }

// Kind returns the name of the populated field or an empty string if none
// are set.
func (p Property) Kind() string {
	switch {
	case len(p.Strings) > 0:
		return "strings"
	case len(p.U32) > 0:
		return "u32"
	case len(p.U64) > 0:
		return "u64"
	case len(p.Bytes) > 0:
		return "bytes"
	case p.Flag:
		return "flag"
	default:
		return ""
	}
}

// DefinedCount reports how many distinct fields on the property are
// populated.
func (p Property) DefinedCount() int {
	count := 0
	if len(p.Strings) > 0 {
		count++
	}
	if len(p.U32) > 0 {
		count++
	}
	if len(p.U64) > 0 {
		count++
	}
	if len(p.Bytes) > 0 {
		count++
	}
	if p.Flag {
		count++
	}
	return count
}

// Node describes a device-tree node.
type Node struct {
	Name       string              `json:"name" yaml:"name"`
	Properties map[string]Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	Children   []Node              `json:"children,omitempty" yaml:"children,omitempty"`
}
