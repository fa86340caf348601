// Package acpi provides the fixed binary layouts shared by the ACPI
// table generators: the common table header, checksums and the packed
// structures of the RISC-V interrupt and capability tables.
package acpi

import (
	"bytes"
	"encoding/binary"
)

// HeaderSize is the size of the common ACPI table header.
const HeaderSize = 36

// OEMInfo carries the identification fields stamped into every table
// header.
type OEMInfo struct {
	OEMID           [6]byte
	OEMTableID      [8]byte
	OEMRevision     uint32
	CreatorID       [4]byte
	CreatorRevision uint32
}

// DefaultOEM is used when the platform config does not override the OEM
// identification.
var DefaultOEM = OEMInfo{
	OEMID:           [6]byte{'D', 'Y', 'N', 'T', 'B', 'L'},
	OEMTableID:      [8]byte{'D', 'Y', 'N', 'T', 'A', 'B', 'L', 'E'},
	OEMRevision:     1,
	CreatorID:       [4]byte{'D', 'Y', 'N', 'T'},
	CreatorRevision: 1,
}

// TableParams describes one table to append to a TableWriter.
type TableParams struct {
	Signature  [4]byte
	Revision   uint8
	OEMTableID [8]byte
	Body       []byte
}

// TableWriter assembles a sequence of ACPI tables back to back, each
// with a finalized length and checksum and 8-byte alignment between
// tables.
type TableWriter struct {
	buf bytes.Buffer
	oem OEMInfo
}

// NewTableWriter creates a writer stamping oem into every header.
func NewTableWriter(oem OEMInfo) *TableWriter {
	return &TableWriter{oem: oem}
}

// Append adds one table and returns its byte offset within the output.
func (w *TableWriter) Append(params TableParams) int {
	start := w.buf.Len()
	w.buf.Write(NewTable(params.Signature, params.Revision, w.oem, params.OEMTableID, params.Body))

	if pad := (w.buf.Len() - start) % 8; pad != 0 {
		w.buf.Write(make([]byte, 8-pad))
	}
	return start
}

// Bytes returns the assembled table region.
func (w *TableWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// NewTable builds a single complete table image: common header followed
// by body, with the length and checksum fields patched.
func NewTable(signature [4]byte, revision uint8, oem OEMInfo, oemTableID [8]byte, body []byte) []byte {
	table := make([]byte, HeaderSize+len(body))

	copy(table[0:4], signature[:])
	binary.LittleEndian.PutUint32(table[4:8], uint32(len(table)))
	table[8] = revision
	copy(table[10:16], oem.OEMID[:])

	if oemTableID == ([8]byte{}) {
		oemTableID = oem.OEMTableID
	}
	copy(table[16:24], oemTableID[:])

	binary.LittleEndian.PutUint32(table[24:28], oem.OEMRevision)
	copy(table[28:32], oem.CreatorID[:])
	binary.LittleEndian.PutUint32(table[32:36], oem.CreatorRevision)

	copy(table[HeaderSize:], body)
	table[9] = Checksum(table)
	return table
}

// Checksum returns the value that makes the byte sum of b zero.
func Checksum(b []byte) byte {
	var sum uint8
	for _, v := range b {
		sum += v
	}
	return byte(0 - sum)
}

// Sig converts a table signature string to its 4-byte form.
func Sig(name string) [4]byte {
	var out [4]byte
	copy(out[:], name)
	return out
}

// SigValue converts a table signature string to its little-endian
// numeric form, as used in table-info lists.
func SigValue(name string) uint32 {
	s := Sig(name)
	return binary.LittleEndian.Uint32(s[:])
}

// TableID converts an OEM table ID string to its 8-byte form.
func TableID(name string) [8]byte {
	var out [8]byte
	copy(out[:], name)
	return out
}
