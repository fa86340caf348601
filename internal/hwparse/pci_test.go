package hwparse

import (
	"testing"

	"github.com/tinyrange/dyntables/internal/cm"
)

func TestSerialPortParse(t *testing.T) {
	v := newVirtTree(1, nil)
	v.plic(0xc000000, 0x600000, 96, 3, []uint32{10, 11, 10, 9})

	v.b.BeginNode("serial@10000000")
	v.b.AddPropertyString("compatible", "ns16550a")
	v.b.AddPropertyU32Array("reg", []uint32{0, 0x10000000, 0, 0x100})
	v.b.AddPropertyU32("interrupt-parent", 3)
	v.b.AddPropertyU32("interrupts", 10)
	v.b.AddPropertyU32("clock-frequency", 3686400)
	v.b.AddPropertyU32("current-speed", 115200)
	v.b.EndNode()

	store := runSession(t, v.build(t))

	records, err := store.GetRecords(cm.ArchSerialPortInfo, cm.NullToken)
	if err != nil {
		t.Fatalf("serial records: %v", err)
	}
	port := records[0].(*cm.SerialPortInfo)
	if port.BaseAddress != 0x10000000 {
		t.Fatalf("base = %#x", port.BaseAddress)
	}
	if port.Interrupt != 10 {
		t.Fatalf("irq = %d", port.Interrupt)
	}
	if port.BaudRate != 115200 {
		t.Fatalf("baud = %d", port.BaudRate)
	}
	if port.Clock != 3686400 {
		t.Fatalf("clock = %d", port.Clock)
	}
	if port.IntcPhandle != 3 {
		t.Fatalf("intc phandle = %d", port.IntcPhandle)
	}
}

func TestHostBridgeParse(t *testing.T) {
	v := newVirtTree(1, nil)
	v.plic(0xc000000, 0x600000, 96, 3, []uint32{10, 11, 10, 9})

	v.b.BeginNode("pci@30000000")
	v.b.AddPropertyString("compatible", "pci-host-ecam-generic")
	v.b.AddPropertyString("device_type", "pci")
	v.b.AddPropertyU32Array("reg", []uint32{0, 0x30000000, 0, 0x10000000})
	v.b.AddPropertyU32Array("bus-range", []uint32{0, 255})
	v.b.AddPropertyU32("#address-cells", 3)
	v.b.AddPropertyU32("#size-cells", 2)
	v.b.AddPropertyU32("#interrupt-cells", 1)
	// One io window and one 32-bit memory window.
	v.b.AddPropertyU32Array("ranges", []uint32{
		0x01000000, 0, 0, 0, 0x3000000, 0, 0x10000,
		0x02000000, 0, 0x40000000, 0, 0x40000000, 0, 0x40000000,
	})
	v.b.AddPropertyU32Array("interrupt-map-mask", []uint32{0x1800, 0, 0, 7})
	// Device 0 pins A-B routed to plic irqs 32 and 33.
	v.b.AddPropertyU32Array("interrupt-map", []uint32{
		0x0000, 0, 0, 1, 3, 32,
		0x0000, 0, 0, 2, 3, 33,
	})
	v.b.EndNode()

	store := runSession(t, v.build(t))

	records, err := store.GetRecords(cm.ArchPciConfigSpaceInfo, cm.NullToken)
	if err != nil {
		t.Fatalf("config space records: %v", err)
	}
	cfg := records[0].(*cm.PciConfigSpaceInfo)
	if cfg.BaseAddress != 0x30000000 {
		t.Fatalf("ecam base = %#x", cfg.BaseAddress)
	}
	if cfg.StartBusNumber != 0 || cfg.EndBusNumber != 255 {
		t.Fatalf("bus range = %d-%d", cfg.StartBusNumber, cfg.EndBusNumber)
	}
	if cfg.AddressMapToken == cm.NullToken || cfg.InterruptMapToken == cm.NullToken {
		t.Fatalf("map tokens = %d, %d", cfg.AddressMapToken, cfg.InterruptMapToken)
	}

	// The address map reference array resolves to the two windows.
	refs, err := store.GetRecords(cm.ArchObjRefID, cfg.AddressMapToken)
	if err != nil {
		t.Fatalf("address map refs: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("address map ref count = %d", len(refs))
	}

	first, err := store.GetRecords(cm.ArchPciAddressMapInfo, refs[0].(*cm.ObjRef).ReferenceToken)
	if err != nil {
		t.Fatalf("address map record: %v", err)
	}
	io := first[0].(*cm.PciAddressMapInfo)
	if io.SpaceCode != cm.PciSpaceCodeIO {
		t.Fatalf("first window space = %d", io.SpaceCode)
	}
	if io.CpuAddress != 0x3000000 || io.AddressSize != 0x10000 {
		t.Fatalf("io window = %#x/%#x", io.CpuAddress, io.AddressSize)
	}

	// Interrupt rows carry the bus, device, pin and plic irq.
	irefs, err := store.GetRecords(cm.ArchObjRefID, cfg.InterruptMapToken)
	if err != nil {
		t.Fatalf("interrupt map refs: %v", err)
	}
	if len(irefs) != 2 {
		t.Fatalf("interrupt map ref count = %d", len(irefs))
	}

	rows, err := store.GetRecords(cm.ArchPciInterruptMapInfo, irefs[1].(*cm.ObjRef).ReferenceToken)
	if err != nil {
		t.Fatalf("interrupt map record: %v", err)
	}
	row := rows[0].(*cm.PciInterruptMapInfo)
	if row.PciInterrupt != 2 {
		t.Fatalf("pin = %d", row.PciInterrupt)
	}
	if row.IntcPhandle != 3 {
		t.Fatalf("intc phandle = %d", row.IntcPhandle)
	}
	if row.IntcInterrupt.Interrupt != 33 {
		t.Fatalf("irq = %d", row.IntcInterrupt.Interrupt)
	}
}
