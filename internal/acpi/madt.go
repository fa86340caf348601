package acpi

import (
	"bytes"
	"encoding/binary"
)

// MADT interrupt controller structure types for RISC-V.
const (
	MadtTypeRintc = 0x18
	MadtTypeImsic = 0x19
	MadtTypeAplic = 0x1A
	MadtTypePlic  = 0x1B
)

// Interrupt controller structure lengths.
const (
	MadtRintcLen = 36
	MadtImsicLen = 16
	MadtAplicLen = 36
	MadtPlicLen  = 36
)

// MadtBody assembles the MADT payload following the common header: the
// 8-byte flags region and the interrupt controller structures.
type MadtBody struct {
	buf bytes.Buffer
}

// NewMadtBody starts a MADT body. Local interrupt controller address
// and flags are both zero on RISC-V platforms.
func NewMadtBody() *MadtBody {
	b := &MadtBody{}
	b.buf.Write(make([]byte, 8))
	return b
}

// Rintc appends a RISC-V INTC structure.
func (b *MadtBody) Rintc(version uint8, flags uint32, hartID uint64, uid uint32, extIntCID uint32, imsicBase uint64, imsicSize uint32) {
	var s [MadtRintcLen]byte
	s[0] = MadtTypeRintc
	s[1] = MadtRintcLen
	s[2] = version
	binary.LittleEndian.PutUint32(s[4:8], flags)
	binary.LittleEndian.PutUint64(s[8:16], hartID)
	binary.LittleEndian.PutUint32(s[16:20], uid)
	binary.LittleEndian.PutUint32(s[20:24], extIntCID)
	binary.LittleEndian.PutUint64(s[24:32], imsicBase)
	binary.LittleEndian.PutUint32(s[32:36], imsicSize)
	b.buf.Write(s[:])
}

// Imsic appends the machine-wide IMSIC structure.
func (b *MadtBody) Imsic(version uint8, numIDs uint16, numGuestIDs uint16, guestIndexBits, hartIndexBits, groupIndexBits, groupIndexShift uint8) {
	var s [MadtImsicLen]byte
	s[0] = MadtTypeImsic
	s[1] = MadtImsicLen
	s[2] = version
	binary.LittleEndian.PutUint32(s[4:8], 0)
	binary.LittleEndian.PutUint16(s[8:10], numIDs)
	binary.LittleEndian.PutUint16(s[10:12], numGuestIDs)
	s[12] = guestIndexBits
	s[13] = hartIndexBits
	s[14] = groupIndexBits
	s[15] = groupIndexShift
	b.buf.Write(s[:])
}

// Aplic appends an APLIC structure.
func (b *MadtBody) Aplic(version uint8, id uint8, flags uint32, hwID uint64, numIDCs uint16, numSources uint16, gsiBase uint32, base uint64, size uint32) {
	var s [MadtAplicLen]byte
	s[0] = MadtTypeAplic
	s[1] = MadtAplicLen
	s[2] = version
	s[3] = id
	binary.LittleEndian.PutUint32(s[4:8], flags)
	binary.LittleEndian.PutUint64(s[8:16], hwID)
	binary.LittleEndian.PutUint16(s[16:18], numIDCs)
	binary.LittleEndian.PutUint16(s[18:20], numSources)
	binary.LittleEndian.PutUint32(s[20:24], gsiBase)
	binary.LittleEndian.PutUint64(s[24:32], base)
	binary.LittleEndian.PutUint32(s[32:36], size)
	b.buf.Write(s[:])
}

// Plic appends a PLIC structure.
func (b *MadtBody) Plic(version uint8, id uint8, hwID uint64, numIRQs uint16, maxPriority uint16, flags uint32, size uint32, base uint64, gsiBase uint32) {
	var s [MadtPlicLen]byte
	s[0] = MadtTypePlic
	s[1] = MadtPlicLen
	s[2] = version
	s[3] = id
	binary.LittleEndian.PutUint64(s[4:12], hwID)
	binary.LittleEndian.PutUint16(s[12:14], numIRQs)
	binary.LittleEndian.PutUint16(s[14:16], maxPriority)
	binary.LittleEndian.PutUint32(s[16:20], flags)
	binary.LittleEndian.PutUint32(s[20:24], size)
	binary.LittleEndian.PutUint64(s[24:32], base)
	binary.LittleEndian.PutUint32(s[32:36], gsiBase)
	b.buf.Write(s[:])
}

// Bytes returns the assembled body.
func (b *MadtBody) Bytes() []byte {
	return b.buf.Bytes()
}
