package acpi

import (
	"bytes"
	"encoding/binary"
)

// RHCT node types.
const (
	RhctNodeIsa      = 0x0000
	RhctNodeCmo      = 0x0001
	RhctNodeMmu      = 0x0002
	RhctNodeHartInfo = 0xFFFF
)

// RhctBodyHeaderSize is the RHCT-specific region following the common
// table header.
const RhctBodyHeaderSize = 20

// RhctBody assembles the RHCT payload: flags, the timebase frequency
// and a sequence of capability nodes. Node offsets are relative to the
// table start, so callers record them via Offset before emitting each
// node.
type RhctBody struct {
	buf       bytes.Buffer
	nodeCount uint32
}

// NewRhctBody starts an RHCT body.
func NewRhctBody(flags uint32, timeBaseFrequency uint64) *RhctBody {
	b := &RhctBody{}
	var hdr [RhctBodyHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], flags)
	binary.LittleEndian.PutUint64(hdr[4:12], timeBaseFrequency)
	b.buf.Write(hdr[:])
	return b
}

// Offset returns the table-relative offset at which the next node will
// be written.
func (b *RhctBody) Offset() uint32 {
	return uint32(HeaderSize + b.buf.Len())
}

func (b *RhctBody) nodeHeader(nodeType uint16, length uint16, revision uint16) {
	var hdr [6]byte
	binary.LittleEndian.PutUint16(hdr[0:2], nodeType)
	binary.LittleEndian.PutUint16(hdr[2:4], length)
	binary.LittleEndian.PutUint16(hdr[4:6], revision)
	b.buf.Write(hdr[:])
	b.nodeCount++
}

// IsaNode appends an ISA string node and returns its offset.
func (b *RhctBody) IsaNode(isa string) uint32 {
	off := b.Offset()

	// NUL terminator plus padding to an even node length.
	strLen := len(isa) + 1
	padded := strLen
	if padded%2 != 0 {
		padded++
	}

	b.nodeHeader(RhctNodeIsa, uint16(8+padded), 1)
	var isaLen [2]byte
	binary.LittleEndian.PutUint16(isaLen[:], uint16(strLen))
	b.buf.Write(isaLen[:])
	b.buf.WriteString(isa)
	b.buf.Write(make([]byte, padded-len(isa)))
	return off
}

// CmoNode appends a cache management operation node and returns its
// offset. Sizes are log2 of the block size in bytes.
func (b *RhctBody) CmoNode(cbomSize, cbopSize, cbozSize uint8) uint32 {
	off := b.Offset()
	b.nodeHeader(RhctNodeCmo, 10, 1)
	b.buf.Write([]byte{0, cbomSize, cbopSize, cbozSize})
	return off
}

// HartInfoNode appends a hart info node pointing one processor at its
// capability nodes.
func (b *RhctBody) HartInfoNode(uid uint32, offsets []uint32) {
	b.nodeHeader(RhctNodeHartInfo, uint16(12+4*len(offsets)), 2)

	var fixed [6]byte
	binary.LittleEndian.PutUint16(fixed[0:2], uint16(len(offsets)))
	binary.LittleEndian.PutUint32(fixed[2:6], uid)
	b.buf.Write(fixed[:])

	for _, off := range offsets {
		var v [4]byte
		binary.LittleEndian.PutUint32(v[:], off)
		b.buf.Write(v[:])
	}
}

// Bytes finalizes the body, patching the node count and first node
// offset.
func (b *RhctBody) Bytes() []byte {
	out := b.buf.Bytes()
	binary.LittleEndian.PutUint32(out[12:16], b.nodeCount)
	binary.LittleEndian.PutUint32(out[16:20], HeaderSize+RhctBodyHeaderSize)
	return out
}
