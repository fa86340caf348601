package acpi

import "encoding/binary"

// Address space IDs for GenericAddress.
const (
	GasSystemMemory = 0x00
	GasSystemIO     = 0x01
)

// Access sizes for GenericAddress.
const (
	GasAccessUndefined = 0
	GasAccessByte      = 1
	GasAccessWord      = 2
	GasAccessDWord     = 3
	GasAccessQWord     = 4
)

// GenericAddress is the 12-byte Generic Address Structure used by the
// FADT and SPCR.
type GenericAddress struct {
	AddressSpaceID    uint8
	RegisterBitWidth  uint8
	RegisterBitOffset uint8
	AccessSize        uint8
	Address           uint64
}

// Encode writes the structure into dst, which must be at least 12 bytes.
func (g GenericAddress) Encode(dst []byte) {
	dst[0] = g.AddressSpaceID
	dst[1] = g.RegisterBitWidth
	dst[2] = g.RegisterBitOffset
	dst[3] = g.AccessSize
	binary.LittleEndian.PutUint64(dst[4:12], g.Address)
}
