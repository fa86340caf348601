package tables

import (
	"errors"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/aml"
	"github.com/tinyrange/dyntables/internal/cm"
)

// buildDsdt emits the base definition block. Devices that depend on
// discovered hardware live in the SSDTs; the DSDT carries the system
// bus scope and the console UART.
func buildDsdt(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error) {
	var terms [][]byte

	if records, err := ctx.Store.GetRecords(cm.ArchSerialPortInfo, cm.NullToken); err == nil {
		port := records[0].(*cm.SerialPortInfo)
		gsi, err := gsiIrqID(ctx, port.IntcPhandle, port.Interrupt)
		if err != nil {
			return acpi.TableParams{}, err
		}

		terms = append(terms, aml.Device("COM0",
			aml.Name("_HID", aml.EisaID("PNP0501")),
			aml.Name("_UID", aml.Integer(0)),
			aml.Name("_CRS", aml.ResourceTemplate(
				aml.Memory32Fixed(uint32(port.BaseAddress), uint32(port.BaseAddressLength), true),
				aml.ExtendedInterrupt(aml.InterruptConsumer|aml.InterruptShared, gsi),
			)),
		))
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	return acpi.TableParams{
		Signature: acpi.Sig("DSDT"),
		Revision:  2,
		Body:      aml.Scope("\\_SB_", terms...),
	}, nil
}
