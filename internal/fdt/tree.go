package fdt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Tree is a read-only view over an FDT blob. Node handles are byte
// offsets of FDT_BEGIN_NODE tokens within the structure block; negative
// values are never valid handles.
type Tree struct {
	structure []byte
	strings   []byte
}

// Parse validates the FDT header and returns a read-only tree over the
// blob. The blob is aliased, not copied.
func Parse(blob []byte) (*Tree, error) {
	if len(blob) < fdtHeaderSize {
		return nil, fmt.Errorf("fdt: blob too short: %d bytes", len(blob))
	}
	magic := binary.BigEndian.Uint32(blob[0:4])
	if magic != fdtMagic {
		return nil, fmt.Errorf("fdt: bad magic 0x%08x", magic)
	}
	totalSize := binary.BigEndian.Uint32(blob[4:8])
	if int(totalSize) > len(blob) {
		return nil, fmt.Errorf("fdt: total size %d exceeds blob size %d", totalSize, len(blob))
	}
	version := binary.BigEndian.Uint32(blob[20:24])
	if version < fdtLastCompVer {
		return nil, fmt.Errorf("fdt: unsupported version %d", version)
	}

	offStruct := binary.BigEndian.Uint32(blob[8:12])
	offStrings := binary.BigEndian.Uint32(blob[12:16])
	sizeStrings := binary.BigEndian.Uint32(blob[32:36])
	sizeStruct := binary.BigEndian.Uint32(blob[36:40])

	if uint64(offStruct)+uint64(sizeStruct) > uint64(totalSize) ||
		uint64(offStrings)+uint64(sizeStrings) > uint64(totalSize) {
		return nil, fmt.Errorf("fdt: block offsets out of range")
	}

	t := &Tree{
		structure: blob[offStruct : offStruct+sizeStruct],
		strings:   blob[offStrings : offStrings+sizeStrings],
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate walks the structure block once so later accessors can trust
// the token framing. Truncated or garbage tokens fail the parse.
func (t *Tree) validate() error {
	off := 0
	for off+4 <= len(t.structure) {
		switch binary.BigEndian.Uint32(t.structure[off : off+4]) {
		case fdtBeginNodeToken:
			end := bytes.IndexByte(t.structure[off+4:], 0)
			if end < 0 {
				return fmt.Errorf("fdt: unterminated node name at offset %d", off)
			}
			off = align4(off + 4 + end + 1)
		case fdtPropToken:
			if off+12 > len(t.structure) {
				return fmt.Errorf("fdt: truncated property at offset %d", off)
			}
			propLen := int(binary.BigEndian.Uint32(t.structure[off+4 : off+8]))
			if propLen < 0 || off+12+propLen > len(t.structure) {
				return fmt.Errorf("fdt: property at offset %d overruns structure block", off)
			}
			off = align4(off + 12 + propLen)
		case fdtEndNodeToken, fdtNopToken:
			off += 4
		case fdtEndToken:
			return nil
		default:
			return fmt.Errorf("fdt: bad token at offset %d", off)
		}
	}
	return fmt.Errorf("fdt: structure block has no end token")
}

// Root returns the handle of the root node.
func (t *Tree) Root() int {
	off := 0
	for off+4 <= len(t.structure) {
		switch binary.BigEndian.Uint32(t.structure[off : off+4]) {
		case fdtBeginNodeToken:
			return off
		case fdtNopToken:
			off += 4
		default:
			return -1
		}
	}
	return -1
}

// NextNode returns the handle of the node following the given one in
// depth-first order, adjusting *depth by the number of levels descended
// or ascended. It mirrors the classic device-tree traversal primitive:
// starting from the root with depth 0, repeated calls enumerate every
// node in the blob. ok is false once the structure block is exhausted.
func (t *Tree) NextNode(node int, depth *int) (next int, ok bool) {
	off := node
	if off < 0 {
		return -1, false
	}
	// Skip the BEGIN_NODE token of the current node.
	if tok, n := t.token(off); tok == fdtBeginNodeToken {
		off = n
	}
	for {
		tok, n := t.token(off)
		switch tok {
		case fdtBeginNodeToken:
			if depth != nil {
				*depth++
			}
			return off, true
		case fdtEndNodeToken:
			if depth != nil {
				*depth--
			}
		case fdtPropToken, fdtNopToken:
		case fdtEndToken:
			return -1, false
		default:
			return -1, false
		}
		if n <= off {
			return -1, false
		}
		off = n
	}
}

// FirstSubnode returns the first child of node.
func (t *Tree) FirstSubnode(node int) (int, bool) {
	depth := 0
	next, ok := t.NextNode(node, &depth)
	if !ok || depth != 1 {
		return -1, false
	}
	return next, true
}

// NextSubnode returns the next sibling of node.
func (t *Tree) NextSubnode(node int) (int, bool) {
	depth := 0
	cur := node
	for {
		next, ok := t.NextNode(cur, &depth)
		if !ok || depth < 0 {
			return -1, false
		}
		if depth == 0 {
			return next, true
		}
		cur = next
	}
}

// NextDescendant returns the next node in depth-first order that is
// still within the branch rooted at branch. Pass the branch handle as
// node for the first call.
func (t *Tree) NextDescendant(branch, node int) (int, bool) {
	depth := 0
	if node != branch {
		// Recompute the depth of node relative to branch.
		cur := branch
		for cur != node {
			next, ok := t.NextNode(cur, &depth)
			if !ok {
				return -1, false
			}
			cur = next
		}
	}
	next, ok := t.NextNode(node, &depth)
	if !ok || depth <= 0 {
		return -1, false
	}
	return next, true
}

// NodeName returns the name of the node, including any unit address.
func (t *Tree) NodeName(node int) string {
	tok, _ := t.token(node)
	if tok != fdtBeginNodeToken {
		return ""
	}
	off := node + 4
	end := bytes.IndexByte(t.structure[off:], 0)
	if end < 0 {
		return ""
	}
	return string(t.structure[off : off+end])
}

// Property returns the raw value of the named property on node.
func (t *Tree) Property(node int, name string) ([]byte, bool) {
	tok, off := t.token(node)
	if tok != fdtBeginNodeToken {
		return nil, false
	}
	for {
		tok, next := t.token(off)
		switch tok {
		case fdtPropToken:
			propLen := binary.BigEndian.Uint32(t.structure[off+4 : off+8])
			nameOff := binary.BigEndian.Uint32(t.structure[off+8 : off+12])
			if off+12+int(propLen) > len(t.structure) {
				return nil, false
			}
			if t.propName(nameOff) == name {
				return t.structure[off+12 : off+12+int(propLen)], true
			}
		case fdtNopToken:
		default:
			// Ran into a subnode or the end of this node.
			return nil, false
		}
		if next <= off {
			return nil, false
		}
		off = next
	}
}

// HasProperty reports whether the node carries the named property,
// including zero-length marker properties.
func (t *Tree) HasProperty(node int, name string) bool {
	_, ok := t.Property(node, name)
	return ok
}

// PropU32 reads a single-cell property.
func (t *Tree) PropU32(node int, name string) (uint32, bool) {
	v, ok := t.Property(node, name)
	if !ok || len(v) < 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(v[:4]), true
}

// PropU64 reads a two-cell property.
func (t *Tree) PropU64(node int, name string) (uint64, bool) {
	v, ok := t.Property(node, name)
	if !ok || len(v) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(v[:8]), true
}

// PropString reads a NUL-terminated string property.
func (t *Tree) PropString(node int, name string) (string, bool) {
	v, ok := t.Property(node, name)
	if !ok {
		return "", false
	}
	return string(bytes.TrimRight(v, "\x00")), true
}

// Cells decodes a property value as a sequence of big-endian 32-bit
// cells.
func Cells(v []byte) []uint32 {
	cells := make([]uint32, 0, len(v)/4)
	for len(v) >= 4 {
		cells = append(cells, binary.BigEndian.Uint32(v[:4]))
		v = v[4:]
	}
	return cells
}

// PathOffset resolves an absolute path ("/cpus") to a node handle.
func (t *Tree) PathOffset(path string) (int, bool) {
	node := t.Root()
	if node < 0 {
		return -1, false
	}
	if path == "/" || path == "" {
		return node, true
	}
	for _, comp := range strings.Split(strings.Trim(path, "/"), "/") {
		found := false
		child, ok := t.FirstSubnode(node)
		for ok {
			name := t.NodeName(child)
			if name == comp || strings.SplitN(name, "@", 2)[0] == comp {
				node = child
				found = true
				break
			}
			child, ok = t.NextSubnode(child)
		}
		if !found {
			return -1, false
		}
	}
	return node, true
}

// NodeByPhandle finds the node whose phandle property matches ph.
func (t *Tree) NodeByPhandle(ph uint32) (int, bool) {
	depth := 0
	node := t.Root()
	for node >= 0 {
		if v, ok := t.PropU32(node, "phandle"); ok && v == ph {
			return node, true
		}
		next, ok := t.NextNode(node, &depth)
		if !ok {
			break
		}
		node = next
	}
	return -1, false
}

// AddressCells returns the #address-cells value of the node, defaulting
// to 2 per the device-tree specification.
func (t *Tree) AddressCells(node int) int {
	if v, ok := t.PropU32(node, "#address-cells"); ok {
		return int(v)
	}
	return 2
}

// SizeCells returns the #size-cells value of the node, defaulting to 1.
func (t *Tree) SizeCells(node int) int {
	if v, ok := t.PropU32(node, "#size-cells"); ok {
		return int(v)
	}
	return 1
}

// token decodes the token at off and returns the offset of the next
// token.
func (t *Tree) token(off int) (tok uint32, next int) {
	if off < 0 || off+4 > len(t.structure) {
		return fdtEndToken, off
	}
	tok = binary.BigEndian.Uint32(t.structure[off : off+4])
	switch tok {
	case fdtBeginNodeToken:
		end := bytes.IndexByte(t.structure[off+4:], 0)
		if end < 0 {
			return fdtEndToken, off
		}
		next = align4(off + 4 + end + 1)
	case fdtPropToken:
		if off+12 > len(t.structure) {
			return fdtEndToken, off
		}
		propLen := binary.BigEndian.Uint32(t.structure[off+4 : off+8])
		next = align4(off + 12 + int(propLen))
	case fdtEndNodeToken, fdtNopToken:
		next = off + 4
	default:
		next = off
	}
	return tok, next
}

func (t *Tree) propName(off uint32) string {
	if int(off) >= len(t.strings) {
		return ""
	}
	end := bytes.IndexByte(t.strings[off:], 0)
	if end < 0 {
		return ""
	}
	return string(t.strings[off : int(off)+end])
}

func align4(n int) int {
	return (n + 3) &^ 3
}
