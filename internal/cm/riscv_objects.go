package cm

import "encoding/binary"

// RintcInfo describes one hart's local interrupt controller and its
// place in the MADT.
type RintcInfo struct {
	Version          uint8
	Reserved1        uint8
	Flags            uint32
	HartID           uint64
	AcpiProcessorUID uint32
	ExtIntCID        uint32
	ImsicBaseAddress uint64
	ImsicSize        uint32
	CpcToken         Token
	EtToken          Token
}

// ImsicInfo is the machine-wide incoming MSI controller description.
type ImsicInfo struct {
	Version         uint8
	Reserved1       uint8
	Flags           uint32
	NumIDs          uint16
	NumGuestIDs     uint16
	GuestIndexBits  uint8
	HartIndexBits   uint8
	GroupIndexBits  uint8
	GroupIndexShift uint8
}

// AplicInfo describes one APLIC wire-based interrupt domain.
type AplicInfo struct {
	Version      uint8
	AplicID      uint8
	Flags        uint32
	HwID         uint64
	NumIdcs      uint16
	NumSources   uint16
	GsiBase      uint32
	AplicAddress uint64
	AplicSize    uint32
	Phandle      uint32
}

// PlicInfo describes one PLIC interrupt controller.
type PlicInfo struct {
	Version     uint8
	PlicID      uint8
	HwID        uint64
	NumSources  uint16
	MaxPriority uint16
	Flags       uint32
	PlicSize    uint32
	PlicAddress uint64
	GsiBase     uint32
	Phandle     uint32
}

// IsaStringInfo carries one hart group's ISA string. Records are
// variable length on the wire: a 2-byte length holding the string size
// including its NUL, then the string.
type IsaStringInfo struct {
	Length    uint16
	IsaString string
}

// PackRecord encodes the record in its variable-length wire form.
func (i IsaStringInfo) PackRecord() []byte {
	out := make([]byte, 2+int(i.Length))
	binary.LittleEndian.PutUint16(out[0:2], i.Length)
	copy(out[2:], i.IsaString)
	return out
}

// UnpackRecord decodes one record from b and returns the bytes
// consumed.
func (i *IsaStringInfo) UnpackRecord(b []byte) (int, error) {
	if len(b) < 2 {
		return 0, ErrInvalidArgument
	}
	i.Length = binary.LittleEndian.Uint16(b[0:2])
	if len(b) < 2+int(i.Length) {
		return 0, ErrInvalidArgument
	}
	raw := b[2 : 2+int(i.Length)]
	for len(raw) > 0 && raw[len(raw)-1] == 0 {
		raw = raw[:len(raw)-1]
	}
	i.IsaString = string(raw)
	return 2 + int(i.Length), nil
}

// NewIsaStringInfo builds a record from a bare ISA string, accounting
// for the trailing NUL.
func NewIsaStringInfo(isa string) IsaStringInfo {
	return IsaStringInfo{Length: uint16(len(isa) + 1), IsaString: isa}
}

// CmoInfo carries the cache block sizes as log2 of bytes.
type CmoInfo struct {
	CbomBlockSize uint8
	CbopBlockSize uint8
	CbozBlockSize uint8
}

// TimerInfo carries the timebase properties shared by all harts.
type TimerInfo struct {
	TimerCannotWakeCpu uint8
	TimeBaseFrequency  uint64
}
