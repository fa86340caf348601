package aml

import (
	"bytes"
	"encoding/binary"
)

// Resource types for address space descriptors.
const (
	ResourceMemory uint8 = 0
	ResourceIO     uint8 = 1
	ResourceBus    uint8 = 2
)

// Extended interrupt flag bits.
const (
	InterruptConsumer  uint8 = 1 << 0
	InterruptEdge      uint8 = 1 << 1
	InterruptActiveLow uint8 = 1 << 2
	InterruptShared    uint8 = 1 << 3
)

// Memory32Fixed encodes a fixed 32-bit memory range descriptor.
func Memory32Fixed(base, size uint32, readWrite bool) []byte {
	var out bytes.Buffer
	out.WriteByte(0x86) // Memory32Fixed tag
	out.WriteByte(0x09) // Length low
	out.WriteByte(0x00) // Length high
	if readWrite {
		out.WriteByte(0x01)
	} else {
		out.WriteByte(0x00)
	}
	binary.Write(&out, binary.LittleEndian, base)
	binary.Write(&out, binary.LittleEndian, size)
	return out.Bytes()
}

// ExtendedInterrupt encodes an extended interrupt descriptor.
func ExtendedInterrupt(flags uint8, interrupts ...uint32) []byte {
	var out bytes.Buffer
	out.WriteByte(0x89) // Extended Interrupt tag
	binary.Write(&out, binary.LittleEndian, uint16(2+4*len(interrupts)))
	out.WriteByte(flags)
	out.WriteByte(byte(len(interrupts)))
	for _, irq := range interrupts {
		binary.Write(&out, binary.LittleEndian, irq)
	}
	return out.Bytes()
}

// WordBusNumber encodes a bus number range descriptor for a host
// bridge.
func WordBusNumber(min, max uint16) []byte {
	var out bytes.Buffer
	out.WriteByte(0x88) // Word Address Space tag
	binary.Write(&out, binary.LittleEndian, uint16(13))
	out.WriteByte(ResourceBus)
	out.WriteByte(0x0c) // min and max fixed
	out.WriteByte(0x00)
	binary.Write(&out, binary.LittleEndian, uint16(0)) // granularity
	binary.Write(&out, binary.LittleEndian, min)
	binary.Write(&out, binary.LittleEndian, max)
	binary.Write(&out, binary.LittleEndian, uint16(0)) // translation
	binary.Write(&out, binary.LittleEndian, max-min+1)
	return out.Bytes()
}

// QWordAddress encodes a 64-bit address space descriptor. The
// translation offset carries host bridge address remapping.
func QWordAddress(resourceType uint8, typeFlags uint8, min, max, translation uint64) []byte {
	var out bytes.Buffer
	out.WriteByte(0x8a) // QWord Address Space tag
	binary.Write(&out, binary.LittleEndian, uint16(43))
	out.WriteByte(resourceType)
	out.WriteByte(0x0c) // min and max fixed
	out.WriteByte(typeFlags)
	binary.Write(&out, binary.LittleEndian, uint64(0)) // granularity
	binary.Write(&out, binary.LittleEndian, min)
	binary.Write(&out, binary.LittleEndian, max)
	binary.Write(&out, binary.LittleEndian, translation)
	binary.Write(&out, binary.LittleEndian, max-min+1)
	return out.Bytes()
}

// Register encodes a generic register descriptor, as used inside _CPC
// entries.
func Register(addressSpaceID, bitWidth, bitOffset, accessSize uint8, address uint64) []byte {
	var out bytes.Buffer
	out.WriteByte(0x82) // Generic Register tag
	binary.Write(&out, binary.LittleEndian, uint16(12))
	out.WriteByte(addressSpaceID)
	out.WriteByte(bitWidth)
	out.WriteByte(bitOffset)
	out.WriteByte(accessSize)
	binary.Write(&out, binary.LittleEndian, address)
	return out.Bytes()
}
