package tables

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"testing"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

func testStore(t *testing.T) *cm.Store {
	t.Helper()
	store := cm.NewStore()

	add := func(id cm.ObjectID, records ...any) cm.Token {
		t.Helper()
		token, err := store.Add(id, records...)
		if err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
		return token
	}

	add(cm.RiscVTimerInfo, cm.TimerInfo{TimeBaseFrequency: 10000000})
	add(cm.RiscVIsaStringInfo, cm.NewIsaStringInfo("rv64imafdc"))
	add(cm.RiscVCmoInfo, cm.CmoInfo{CbomBlockSize: 6, CbozBlockSize: 6})
	add(cm.RiscVPlicInfo, cm.PlicInfo{
		Version:     1,
		NumSources:  96,
		MaxPriority: 7,
		PlicAddress: 0xc000000,
		PlicSize:    0x600000,
		Phandle:     3,
	})
	add(cm.RiscVRintcInfo,
		cm.RintcInfo{Version: 1, Flags: 1, HartID: 0, AcpiProcessorUID: 0, ExtIntCID: 1},
		cm.RintcInfo{Version: 1, Flags: 1, HartID: 1, AcpiProcessorUID: 1, ExtIntCID: 3},
	)
	add(cm.ArchSerialPortInfo, cm.SerialPortInfo{
		BaseAddress:       0x10000000,
		BaseAddressLength: 0x100,
		Interrupt:         10,
		BaudRate:          115200,
		AccessSize:        acpi.GasAccessByte,
		IntcPhandle:       3,
	})

	for _, info := range DefaultTableList(store) {
		add(cm.StdAcpiTableList, info)
	}
	return store
}

func testContext(store *cm.Store) *Context {
	return &Context{Store: store, OEM: acpi.DefaultOEM, Log: slog.Default()}
}

func parseTables(t *testing.T, region []byte) map[string]int {
	t.Helper()
	tables := make(map[string]int)
	for pos := 0; pos+36 <= len(region); {
		sig := string(region[pos : pos+4])
		if sig == "\x00\x00\x00\x00" {
			break
		}
		length := int(binary.LittleEndian.Uint32(region[pos+4 : pos+8]))
		if pos+length > len(region) {
			t.Fatalf("table %s overruns region", sig)
		}
		var sum byte
		for _, b := range region[pos : pos+length] {
			sum += b
		}
		if sum != 0 {
			t.Fatalf("table %s checksum mismatch", sig)
		}
		tables[sig] = pos
		pos += align(length, 8)
	}
	return tables
}

func align(n, a int) int {
	if r := n % a; r != 0 {
		return n + (a - r)
	}
	return n
}

func TestInstallProducesTableSet(t *testing.T) {
	store := testStore(t)

	result, err := Install(testContext(store), InstallConfig{
		OEM:        acpi.DefaultOEM,
		TablesBase: 0x80000000,
	}, nil)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	tables := parseTables(t, result.Tables)
	for _, sig := range []string{"FACP", "APIC", "DSDT", "RHCT", "SPCR", "SSDT", "XSDT"} {
		if _, ok := tables[sig]; !ok {
			t.Fatalf("missing %s table", sig)
		}
	}

	if string(result.RSDP[:8]) != "RSD PTR " {
		t.Fatalf("bad RSDP signature: %q", result.RSDP[:8])
	}
	xsdtAddr := binary.LittleEndian.Uint64(result.RSDP[24:32])
	if want := 0x80000000 + uint64(tables["XSDT"]); xsdtAddr != want {
		t.Fatalf("xsdt pointer = %#x, want %#x", xsdtAddr, want)
	}

	// The FADT points at the DSDT; the XSDT never does.
	fadt := result.Tables[tables["FACP"]:]
	xDsdt := binary.LittleEndian.Uint64(fadt[fadtXDsdtOffset:])
	if want := 0x80000000 + uint64(tables["DSDT"]); xDsdt != want {
		t.Fatalf("x_dsdt = %#x, want %#x", xDsdt, want)
	}

	xsdt := result.Tables[tables["XSDT"]:]
	xsdtLen := binary.LittleEndian.Uint32(xsdt[4:8])
	for body := xsdt[36:xsdtLen]; len(body) >= 8; body = body[8:] {
		entry := binary.LittleEndian.Uint64(body[:8])
		if entry == 0x80000000+uint64(tables["DSDT"]) {
			t.Fatalf("dsdt listed in xsdt")
		}
	}
}

func TestInstallMadtContent(t *testing.T) {
	store := testStore(t)

	result, err := Install(testContext(store), InstallConfig{OEM: acpi.DefaultOEM}, nil)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	tables := parseTables(t, result.Tables)

	madt := result.Tables[tables["APIC"]:]
	length := binary.LittleEndian.Uint32(madt[4:8])

	// Two RINTC structures and one PLIC structure follow the flags.
	if want := uint32(36 + 8 + 2*acpi.MadtRintcLen + acpi.MadtPlicLen); length != want {
		t.Fatalf("madt length = %d, want %d", length, want)
	}

	rintc1 := madt[36+8+acpi.MadtRintcLen:]
	if rintc1[0] != acpi.MadtTypeRintc {
		t.Fatalf("second structure type = %d", rintc1[0])
	}
	if got := binary.LittleEndian.Uint32(rintc1[16:20]); got != 1 {
		t.Fatalf("second rintc uid = %d", got)
	}
}

func TestInstallRhctContent(t *testing.T) {
	store := testStore(t)

	result, err := Install(testContext(store), InstallConfig{OEM: acpi.DefaultOEM}, nil)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	tables := parseTables(t, result.Tables)

	rhct := result.Tables[tables["RHCT"]:]
	if got := binary.LittleEndian.Uint64(rhct[40:48]); got != 10000000 {
		t.Fatalf("timebase = %d", got)
	}
	// ISA node, CMO node and one hart info node per hart.
	if got := binary.LittleEndian.Uint32(rhct[48:52]); got != 4 {
		t.Fatalf("node count = %d", got)
	}
}

func TestInstallFailsWithoutMandatoryTables(t *testing.T) {
	store := cm.NewStore()
	if _, err := store.Add(cm.StdAcpiTableList, cm.AcpiTableInfo{
		TableSignature: acpi.SigValue("APIC"),
		GeneratorID:    GenMadt,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	_, err := Install(testContext(store), InstallConfig{OEM: acpi.DefaultOEM}, nil)
	if !errors.Is(err, cm.ErrNotFound) {
		t.Fatalf("err = %v, want missing mandatory tables", err)
	}
}
