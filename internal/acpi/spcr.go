package acpi

import "encoding/binary"

// SPCR interface types.
const (
	SpcrInterface16550    = 0x00
	SpcrInterface16550Gas = 0x12
	SpcrInterfaceRiscVSbi = 0x15
)

// SPCR interrupt type bits.
const (
	SpcrInterruptGic       = 1 << 4
	SpcrInterruptRiscVPlic = 1 << 5
)

// SPCR baud rate encodings.
const (
	SpcrBaudAsIs   = 0
	SpcrBaud9600   = 3
	SpcrBaud19200  = 4
	SpcrBaud57600  = 6
	SpcrBaud115200 = 7
)

// SpcrTableSize is the full SPCR size for revision 2.
const SpcrTableSize = 80

// SpcrParams carries the serial console description.
type SpcrParams struct {
	InterfaceType uint8
	BaseAddress   GenericAddress
	InterruptType uint8
	GSI           uint32
	BaudRate      uint8
}

// SpcrBody builds the SPCR payload. PCI fields are set to the
// not-a-PCI-device convention.
func SpcrBody(params SpcrParams) []byte {
	body := make([]byte, SpcrTableSize-HeaderSize)

	body[36-HeaderSize] = params.InterfaceType
	params.BaseAddress.Encode(body[40-HeaderSize:])
	body[52-HeaderSize] = params.InterruptType
	binary.LittleEndian.PutUint32(body[54-HeaderSize:], params.GSI)
	body[58-HeaderSize] = params.BaudRate
	body[62-HeaderSize] = 0 // terminal type VT100

	// No PCI device: device and vendor IDs all ones, BDF zero.
	binary.LittleEndian.PutUint16(body[64-HeaderSize:], 0xFFFF)
	binary.LittleEndian.PutUint16(body[66-HeaderSize:], 0xFFFF)
	return body
}
