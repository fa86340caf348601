package acpi

import "encoding/binary"

// FADT fixed feature flags.
const (
	FadtHwReducedAcpi     = 1 << 20
	FadtLowPowerS0Capable = 1 << 21
)

// FadtTableSize is the full FADT size for revision 6.
const FadtTableSize = 276

// FadtParams carries the fields a hardware-reduced platform actually
// populates. All address and legacy register fields stay zero.
type FadtParams struct {
	Flags                    uint32
	MinorVersion             uint8
	HypervisorVendorIdentity uint64
}

// FadtBody builds the FADT payload. The preferred power management
// profile byte lives in the body and is set separately because it comes
// from a different config object than the flags.
func FadtBody(params FadtParams, pmProfile uint8) []byte {
	body := make([]byte, FadtTableSize-HeaderSize)

	// Table-relative offset 45: preferred PM profile.
	body[45-HeaderSize] = pmProfile

	binary.LittleEndian.PutUint32(body[112-HeaderSize:], params.Flags)
	body[131-HeaderSize] = params.MinorVersion
	binary.LittleEndian.PutUint64(body[268-HeaderSize:], params.HypervisorVendorIdentity)
	return body
}
