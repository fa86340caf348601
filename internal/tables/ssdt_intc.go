package tables

import (
	"errors"
	"fmt"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/aml"
	"github.com/tinyrange/dyntables/internal/cm"
)

// buildSsdtIntc emits one device per wire-based interrupt controller
// so the OS can bind GSI ranges to controllers.
func buildSsdtIntc(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error) {
	var devices [][]byte
	var index int

	if records, err := ctx.Store.GetRecords(cm.RiscVAplicInfo, cm.NullToken); err == nil {
		for _, r := range records {
			a := r.(*cm.AplicInfo)
			devices = append(devices, intcDevice(index, "RSCV0002", uint64(a.AplicID),
				a.GsiBase, a.AplicAddress, uint64(a.AplicSize)))
			index++
		}
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	if records, err := ctx.Store.GetRecords(cm.RiscVPlicInfo, cm.NullToken); err == nil {
		for _, r := range records {
			p := r.(*cm.PlicInfo)
			devices = append(devices, intcDevice(index, "RSCV0001", uint64(p.PlicID),
				p.GsiBase, p.PlicAddress, uint64(p.PlicSize)))
			index++
		}
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	if len(devices) == 0 {
		return acpi.TableParams{}, fmt.Errorf("tables: no wire based interrupt controllers: %w", cm.ErrNotFound)
	}

	return acpi.TableParams{
		Signature:  acpi.Sig("SSDT"),
		Revision:   2,
		OEMTableID: acpi.TableID("INTC"),
		Body:       aml.Scope("\\_SB_", devices...),
	}, nil
}

func intcDevice(index int, hid string, uid uint64, gsiBase uint32, base uint64, size uint64) []byte {
	return aml.Device(fmt.Sprintf("IC%02X", index),
		aml.Name("_HID", aml.String(hid)),
		aml.Name("_UID", aml.Integer(uid)),
		aml.Name("_GSB", aml.Integer(uint64(gsiBase))),
		aml.Name("_CRS", aml.ResourceTemplate(
			aml.Memory32Fixed(uint32(base), uint32(size), true),
		)),
	)
}
