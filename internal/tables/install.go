package tables

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

// fadtXDsdtOffset is where the FADT holds the 64-bit DSDT address.
const fadtXDsdtOffset = 140

// InstallConfig places the generated tables in the guest address
// space.
type InstallConfig struct {
	OEM        acpi.OEMInfo
	TablesBase uint64
}

// Result is a complete table set: the table region to load at
// TablesBase and the root pointer structure.
type Result struct {
	Tables []byte
	RSDP   []byte
}

// Install runs the whole generation stage: verify the table list,
// build every declared table, link the DSDT into the FADT and close
// the set with an XSDT and RSDP.
func Install(ctx *Context, cfg InstallConfig, verifier *Verifier) (*Result, error) {
	listRecords, err := ctx.Store.GetRecords(cm.StdAcpiTableList, cm.NullToken)
	if err != nil {
		return nil, fmt.Errorf("tables: no table list: %w", err)
	}
	infos := make([]cm.AcpiTableInfo, len(listRecords))
	for i, r := range listRecords {
		infos[i] = *r.(*cm.AcpiTableInfo)
	}

	if verifier == nil {
		verifier = NewVerifier(ctx.Log)
	}
	if err := verifier.Check(infos); err != nil {
		return nil, err
	}

	writer := acpi.NewTableWriter(cfg.OEM)
	var xsdtEntries []uint64
	fadtOff, dsdtOff := -1, -1

	for _, info := range infos {
		g, err := Lookup(info.GeneratorID)
		if err != nil {
			return nil, err
		}

		params, err := g.Build(ctx, info)
		if err != nil {
			return nil, fmt.Errorf("tables: %s: %w", g.Name, err)
		}
		if info.TableRevision != 0 {
			params.Revision = info.TableRevision
		}
		if info.OemTableID != 0 {
			binary.LittleEndian.PutUint64(params.OEMTableID[:], info.OemTableID)
		}

		off := writer.Append(params)
		ctx.Log.Info("generated table", "generator", g.Name,
			"signature", string(params.Signature[:]), "offset", off)

		switch {
		case params.Signature == acpi.Sig("FACP"):
			fadtOff = off
			xsdtEntries = append(xsdtEntries, cfg.TablesBase+uint64(off))
		case params.Signature == acpi.Sig("DSDT"):
			// Reached through the FADT, not the XSDT.
			dsdtOff = off
		default:
			xsdtEntries = append(xsdtEntries, cfg.TablesBase+uint64(off))
		}
	}

	tables := writer.Bytes()
	if fadtOff >= 0 && dsdtOff >= 0 {
		patchFadtDsdt(tables[fadtOff:], cfg.TablesBase+uint64(dsdtOff))
	}

	xsdtOff := len(tables)
	xsdt := acpi.NewTable(acpi.Sig("XSDT"), 1, cfg.OEM, [8]byte{}, xsdtBody(xsdtEntries))

	var out bytes.Buffer
	out.Write(tables)
	out.Write(xsdt)

	return &Result{
		Tables: out.Bytes(),
		RSDP:   buildRSDP(cfg.TablesBase+uint64(xsdtOff), cfg.OEM),
	}, nil
}

// patchFadtDsdt writes the DSDT address into an appended FADT and
// repairs its checksum.
func patchFadtDsdt(fadt []byte, dsdtAddr uint64) {
	length := binary.LittleEndian.Uint32(fadt[4:8])
	table := fadt[:length]
	binary.LittleEndian.PutUint64(table[fadtXDsdtOffset:], dsdtAddr)
	table[9] = 0
	table[9] = acpi.Checksum(table)
}

func xsdtBody(entries []uint64) []byte {
	buf := &bytes.Buffer{}
	for _, entry := range entries {
		binary.Write(buf, binary.LittleEndian, entry)
	}
	return buf.Bytes()
}

func buildRSDP(xsdtAddr uint64, oem acpi.OEMInfo) []byte {
	rsdp := make([]byte, 36)
	copy(rsdp[0:], []byte("RSD PTR "))
	copy(rsdp[9:], oem.OEMID[:])
	rsdp[15] = 2
	binary.LittleEndian.PutUint32(rsdp[16:], 0)
	binary.LittleEndian.PutUint32(rsdp[20:], uint32(len(rsdp)))
	binary.LittleEndian.PutUint64(rsdp[24:], xsdtAddr)

	rsdp[8] = acpi.Checksum(rsdp[:20])
	rsdp[32] = acpi.Checksum(rsdp)
	return rsdp
}

// DefaultTableList declares the standard table set for a machine
// described by the store: the four mandatory tables, the console
// table when a serial port was found, and the definition block SSDTs
// for whatever hardware is present.
func DefaultTableList(store *cm.Store) []cm.AcpiTableInfo {
	infos := []cm.AcpiTableInfo{
		{TableSignature: acpi.SigValue("FACP"), GeneratorID: GenFadt},
		{TableSignature: acpi.SigValue("APIC"), GeneratorID: GenMadt},
		{TableSignature: acpi.SigValue("DSDT"), GeneratorID: GenDsdt},
		{TableSignature: acpi.SigValue("RHCT"), GeneratorID: GenRhct},
	}
	if store.Count(cm.ArchSerialPortInfo) > 0 {
		infos = append(infos, cm.AcpiTableInfo{TableSignature: acpi.SigValue("SPCR"), GeneratorID: GenSpcr})
	}
	infos = append(infos, cm.AcpiTableInfo{TableSignature: acpi.SigValue("SSDT"), GeneratorID: GenSsdtCpuTopology})
	if store.Count(cm.RiscVPlicInfo) > 0 || store.Count(cm.RiscVAplicInfo) > 0 {
		infos = append(infos, cm.AcpiTableInfo{TableSignature: acpi.SigValue("SSDT"), GeneratorID: GenSsdtIntc})
	}
	if store.Count(cm.ArchPciConfigSpaceInfo) > 0 {
		infos = append(infos, cm.AcpiTableInfo{TableSignature: acpi.SigValue("SSDT"), GeneratorID: GenSsdtPcie})
	}
	return infos
}
