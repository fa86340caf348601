package tables

import (
	"fmt"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/aml"
	"github.com/tinyrange/dyntables/internal/cm"
)

// buildSsdtPcie emits one host bridge device per config space record,
// with its bus and window resources and the interrupt routing table.
func buildSsdtPcie(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error) {
	records, err := ctx.Store.GetRecords(cm.ArchPciConfigSpaceInfo, cm.NullToken)
	if err != nil {
		return acpi.TableParams{}, fmt.Errorf("tables: ssdt-pcie needs config space info: %w", err)
	}

	var devices [][]byte
	for i, r := range records {
		cfg := r.(*cm.PciConfigSpaceInfo)
		device, err := pcieDevice(ctx, i, cfg)
		if err != nil {
			return acpi.TableParams{}, err
		}
		devices = append(devices, device)
	}

	return acpi.TableParams{
		Signature:  acpi.Sig("SSDT"),
		Revision:   2,
		OEMTableID: acpi.TableID("PCIE"),
		Body:       aml.Scope("\\_SB_", devices...),
	}, nil
}

func pcieDevice(ctx *Context, index int, cfg *cm.PciConfigSpaceInfo) ([]byte, error) {
	crs, err := pcieResources(ctx, cfg)
	if err != nil {
		return nil, err
	}
	prt, err := pcieRoutingTable(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return aml.Device(fmt.Sprintf("PCI%X", index),
		aml.Name("_HID", aml.EisaID("PNP0A08")),
		aml.Name("_CID", aml.EisaID("PNP0A03")),
		aml.Name("_SEG", aml.Integer(uint64(cfg.PciSegmentGroupNumber))),
		aml.Name("_BBN", aml.Integer(uint64(cfg.StartBusNumber))),
		aml.Name("_UID", aml.Integer(uint64(index))),
		aml.Name("_CCA", aml.Integer(1)),
		aml.Name("_CRS", crs),
		aml.Name("_PRT", prt),
	), nil
}

// pcieResources builds _CRS from the bridge's bus range and address
// windows. Host bridge windows translate between PCI and CPU views,
// which the descriptors carry as a translation offset.
func pcieResources(ctx *Context, cfg *cm.PciConfigSpaceInfo) ([]byte, error) {
	descriptors := [][]byte{
		aml.WordBusNumber(uint16(cfg.StartBusNumber), uint16(cfg.EndBusNumber)),
	}

	windows, err := ctx.Store.GetRecords(cm.ArchObjRefID, cfg.AddressMapToken)
	if err != nil {
		return nil, fmt.Errorf("tables: address map refs: %w", err)
	}
	for _, ref := range windows {
		rows, err := ctx.Store.GetRecords(cm.ArchPciAddressMapInfo, ref.(*cm.ObjRef).ReferenceToken)
		if err != nil {
			return nil, fmt.Errorf("tables: address map row: %w", err)
		}
		row := rows[0].(*cm.PciAddressMapInfo)

		resourceType := aml.ResourceMemory
		var typeFlags uint8 = 0x01 // cacheable memory flags do not apply, mark read-write
		if row.SpaceCode == cm.PciSpaceCodeIO {
			resourceType = aml.ResourceIO
			typeFlags = 0x03 // entire range
		}

		descriptors = append(descriptors, aml.QWordAddress(resourceType, typeFlags,
			row.PciAddress, row.PciAddress+row.AddressSize-1, row.CpuAddress-row.PciAddress))
	}

	return aml.ResourceTemplate(descriptors...), nil
}

// pcieRoutingTable builds _PRT from the bridge interrupt map rows.
// Interrupt numbers are remapped to global source numbers.
func pcieRoutingTable(ctx *Context, cfg *cm.PciConfigSpaceInfo) ([]byte, error) {
	refs, err := ctx.Store.GetRecords(cm.ArchObjRefID, cfg.InterruptMapToken)
	if err != nil {
		return nil, fmt.Errorf("tables: interrupt map refs: %w", err)
	}

	var entries [][]byte
	for _, ref := range refs {
		rows, err := ctx.Store.GetRecords(cm.ArchPciInterruptMapInfo, ref.(*cm.ObjRef).ReferenceToken)
		if err != nil {
			return nil, fmt.Errorf("tables: interrupt map row: %w", err)
		}
		row := rows[0].(*cm.PciInterruptMapInfo)

		gsi, err := gsiIrqID(ctx, row.IntcPhandle, row.IntcInterrupt.Interrupt)
		if err != nil {
			return nil, err
		}

		if row.PciInterrupt == 0 {
			return nil, fmt.Errorf("tables: interrupt map row has pin 0: %w", cm.ErrInvalidArgument)
		}

		// Address is device in the high word, any function.
		address := uint64(row.PciDevice)<<16 | 0xFFFF
		entries = append(entries, aml.Package(
			aml.Integer(address),
			aml.Integer(uint64(row.PciInterrupt-1)),
			aml.Integer(0),
			aml.Integer(uint64(gsi)),
		))
	}

	return aml.Package(entries...), nil
}
