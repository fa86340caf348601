package aml

import (
	"bytes"
	"testing"
)

func TestNameString(t *testing.T) {
	if got := NameString("\\_SB_"); !bytes.Equal(got, []byte("\\_SB_")) {
		t.Fatalf("root name = %q", got)
	}
	if got := NameString("C000"); !bytes.Equal(got, []byte("C000")) {
		t.Fatalf("plain name = %q", got)
	}

	got := NameString("\\_SB_.PCI0")
	want := append([]byte{'\\', 0x2e}, []byte("_SB_PCI0")...)
	if !bytes.Equal(got, want) {
		t.Fatalf("dual name = % x, want % x", got, want)
	}

	// Short segments pad with underscores.
	if got := NameString("CPC"); !bytes.Equal(got, []byte("CPC_")) {
		t.Fatalf("padded name = %q", got)
	}
}

func TestPkgLength(t *testing.T) {
	// One byte encoding covers the PkgLength byte itself.
	if got := pkgLength(0x3e); !bytes.Equal(got, []byte{0x3f}) {
		t.Fatalf("small = % x", got)
	}

	// 0x3f + 1 no longer fits one byte.
	got := pkgLength(0x3f)
	if len(got) != 2 {
		t.Fatalf("two byte encoding = % x", got)
	}
	total := 0x3f + 2
	if got[0] != byte(1<<6)|byte(total&0x0F) || got[1] != byte(total>>4) {
		t.Fatalf("two byte encoding = % x", got)
	}
}

func TestIntegerPrefixes(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{0x20, []byte{0x0a, 0x20}},
		{0x1234, []byte{0x0b, 0x34, 0x12}},
		{0xc000000, []byte{0x0c, 0x00, 0x00, 0x00, 0x0c}},
		{0x1_0000_0000, []byte{0x0e, 0, 0, 0, 0, 1, 0, 0, 0}},
	}
	for _, c := range cases {
		if got := Integer(c.v); !bytes.Equal(got, c.want) {
			t.Fatalf("Integer(%#x) = % x, want % x", c.v, got, c.want)
		}
	}
}

func TestEisaID(t *testing.T) {
	// PNP0A03 compresses to 0x030AD041 little endian.
	want := []byte{0x0c, 0x41, 0xd0, 0x0a, 0x03}
	if got := EisaID("PNP0A03"); !bytes.Equal(got, want) {
		t.Fatalf("EisaID = % x, want % x", got, want)
	}
}

func TestDeviceStructure(t *testing.T) {
	dev := Device("C000",
		Name("_HID", String("ACPI0007")),
		Name("_UID", Integer(0)),
	)

	if dev[0] != 0x5b || dev[1] != 0x82 {
		t.Fatalf("device opcode = % x", dev[:2])
	}

	// PkgLength one byte, then the device name.
	if string(dev[3:7]) != "C000" {
		t.Fatalf("device name = %q", dev[3:7])
	}
	if int(dev[2]) != len(dev)-2 {
		t.Fatalf("pkg length = %d, device = %d bytes", dev[2], len(dev))
	}

	if !bytes.Contains(dev, []byte("ACPI0007")) {
		t.Fatalf("device body missing HID:\n% x", dev)
	}
}

func TestResourceTemplate(t *testing.T) {
	rt := ResourceTemplate(
		Memory32Fixed(0xc000000, 0x600000, true),
		ExtendedInterrupt(InterruptConsumer|InterruptShared, 10),
	)

	if rt[0] != 0x11 {
		t.Fatalf("buffer opcode = %#x", rt[0])
	}
	if !bytes.Contains(rt, []byte{0x79, 0x00}) {
		t.Fatalf("missing end tag:\n% x", rt)
	}
	if !bytes.Contains(rt, []byte{0x86, 0x09, 0x00, 0x01}) {
		t.Fatalf("missing memory descriptor:\n% x", rt)
	}
}

func TestQWordAddress(t *testing.T) {
	desc := QWordAddress(ResourceMemory, 0x01, 0x40000000, 0x7fffffff, 0)
	if desc[0] != 0x8a {
		t.Fatalf("tag = %#x", desc[0])
	}
	if len(desc) != 3+43 {
		t.Fatalf("descriptor length = %d", len(desc))
	}
}
