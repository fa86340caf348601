package acpi

import (
	"encoding/binary"
	"testing"
)

func TestNewTableChecksum(t *testing.T) {
	table := NewTable(Sig("APIC"), 7, DefaultOEM, [8]byte{}, []byte{1, 2, 3, 4})

	if got := binary.LittleEndian.Uint32(table[4:8]); got != uint32(len(table)) {
		t.Fatalf("length field = %d, want %d", got, len(table))
	}

	var sum uint8
	for _, b := range table {
		sum += b
	}
	if sum != 0 {
		t.Fatalf("table byte sum = %d, want 0", sum)
	}

	if string(table[0:4]) != "APIC" {
		t.Fatalf("signature = %q", table[0:4])
	}
	if table[8] != 7 {
		t.Fatalf("revision = %d", table[8])
	}
}

func TestTableWriterAlignment(t *testing.T) {
	w := NewTableWriter(DefaultOEM)

	off1 := w.Append(TableParams{Signature: Sig("AAAA"), Revision: 1, Body: []byte{1, 2, 3}})
	off2 := w.Append(TableParams{Signature: Sig("BBBB"), Revision: 1, Body: []byte{4}})

	if off1 != 0 {
		t.Fatalf("first table offset = %d", off1)
	}
	if off2%8 != 0 {
		t.Fatalf("second table offset %d not 8-byte aligned", off2)
	}
}

func TestMadtStructures(t *testing.T) {
	b := NewMadtBody()
	b.Rintc(1, 1, 0x10, 0, 0x01000000, 0x28000000, 0x1000)
	b.Plic(1, 0, 0, 96, 7, 0, 0x600000, 0xc000000, 0)
	out := b.Bytes()

	if len(out) != 8+MadtRintcLen+MadtPlicLen {
		t.Fatalf("body length = %d", len(out))
	}

	rintc := out[8:]
	if rintc[0] != MadtTypeRintc || rintc[1] != MadtRintcLen {
		t.Fatalf("rintc header = %d/%d", rintc[0], rintc[1])
	}
	if got := binary.LittleEndian.Uint64(rintc[8:16]); got != 0x10 {
		t.Fatalf("hart id = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(rintc[20:24]); got != 0x01000000 {
		t.Fatalf("ext intc id = %#x", got)
	}

	plic := out[8+MadtRintcLen:]
	if plic[0] != MadtTypePlic || plic[1] != MadtPlicLen {
		t.Fatalf("plic header = %d/%d", plic[0], plic[1])
	}
	if got := binary.LittleEndian.Uint16(plic[12:14]); got != 96 {
		t.Fatalf("plic irq count = %d", got)
	}
	if got := binary.LittleEndian.Uint64(plic[24:32]); got != 0xc000000 {
		t.Fatalf("plic base = %#x", got)
	}
}

func TestRhctNodes(t *testing.T) {
	b := NewRhctBody(0, 10000000)

	isaOff := b.IsaNode("rv64imafdc")
	cmoOff := b.CmoNode(6, 0, 6)
	b.HartInfoNode(0, []uint32{isaOff, cmoOff})

	out := b.Bytes()

	if got := binary.LittleEndian.Uint64(out[4:12]); got != 10000000 {
		t.Fatalf("timebase = %d", got)
	}
	if got := binary.LittleEndian.Uint32(out[12:16]); got != 3 {
		t.Fatalf("node count = %d", got)
	}
	if got := binary.LittleEndian.Uint32(out[16:20]); got != HeaderSize+RhctBodyHeaderSize {
		t.Fatalf("node offset = %d", got)
	}

	if isaOff != HeaderSize+RhctBodyHeaderSize {
		t.Fatalf("isa node offset = %d", isaOff)
	}

	isa := out[isaOff-HeaderSize:]
	if got := binary.LittleEndian.Uint16(isa[0:2]); got != RhctNodeIsa {
		t.Fatalf("isa node type = %d", got)
	}
	// "rv64imafdc" is 10 chars, 11 with NUL, padded to 12, node 8+12.
	if got := binary.LittleEndian.Uint16(isa[2:4]); got != 20 {
		t.Fatalf("isa node length = %d", got)
	}
	if got := binary.LittleEndian.Uint16(isa[6:8]); got != 11 {
		t.Fatalf("isa string length = %d", got)
	}
	if string(isa[8:18]) != "rv64imafdc" {
		t.Fatalf("isa string = %q", isa[8:18])
	}

	cmo := out[cmoOff-HeaderSize:]
	if got := binary.LittleEndian.Uint16(cmo[0:2]); got != RhctNodeCmo {
		t.Fatalf("cmo node type = %d", got)
	}
	if cmo[7] != 6 || cmo[9] != 6 {
		t.Fatalf("cmo sizes = %d/%d", cmo[7], cmo[9])
	}

	hart := out[cmoOff-HeaderSize+10:]
	if got := binary.LittleEndian.Uint16(hart[0:2]); got != RhctNodeHartInfo {
		t.Fatalf("hart node type = %d", got)
	}
	if got := binary.LittleEndian.Uint16(hart[6:8]); got != 2 {
		t.Fatalf("hart offset count = %d", got)
	}
	if got := binary.LittleEndian.Uint32(hart[12:16]); got != isaOff {
		t.Fatalf("hart first offset = %d, want %d", got, isaOff)
	}
}

func TestFadtBody(t *testing.T) {
	body := FadtBody(FadtParams{
		Flags:                    FadtHwReducedAcpi,
		MinorVersion:             5,
		HypervisorVendorIdentity: 0x4B564D4B564D4B56,
	}, 4)

	if len(body) != FadtTableSize-HeaderSize {
		t.Fatalf("body length = %d", len(body))
	}
	if body[45-HeaderSize] != 4 {
		t.Fatalf("pm profile = %d", body[45-HeaderSize])
	}
	if got := binary.LittleEndian.Uint32(body[112-HeaderSize:]); got != FadtHwReducedAcpi {
		t.Fatalf("flags = %#x", got)
	}
	if body[131-HeaderSize] != 5 {
		t.Fatalf("minor version = %d", body[131-HeaderSize])
	}
	if got := binary.LittleEndian.Uint64(body[268-HeaderSize:]); got != 0x4B564D4B564D4B56 {
		t.Fatalf("hypervisor id = %#x", got)
	}
}

func TestSpcrBody(t *testing.T) {
	body := SpcrBody(SpcrParams{
		InterfaceType: SpcrInterface16550,
		BaseAddress: GenericAddress{
			AddressSpaceID:   GasSystemMemory,
			RegisterBitWidth: 8,
			AccessSize:       GasAccessByte,
			Address:          0x10000000,
		},
		InterruptType: SpcrInterruptRiscVPlic,
		GSI:           10,
		BaudRate:      SpcrBaud115200,
	})

	if len(body) != SpcrTableSize-HeaderSize {
		t.Fatalf("body length = %d", len(body))
	}
	if got := binary.LittleEndian.Uint64(body[44-HeaderSize:]); got != 0x10000000 {
		t.Fatalf("base address = %#x", got)
	}
	if body[52-HeaderSize] != SpcrInterruptRiscVPlic {
		t.Fatalf("interrupt type = %#x", body[52-HeaderSize])
	}
	if got := binary.LittleEndian.Uint32(body[54-HeaderSize:]); got != 10 {
		t.Fatalf("gsi = %d", got)
	}
	if got := binary.LittleEndian.Uint16(body[64-HeaderSize:]); got != 0xFFFF {
		t.Fatalf("pci device id = %#x", got)
	}
}
