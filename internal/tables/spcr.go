package tables

import (
	"fmt"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

func spcrBaudRate(baud uint64) uint8 {
	switch baud {
	case 9600:
		return acpi.SpcrBaud9600
	case 19200:
		return acpi.SpcrBaud19200
	case 57600:
		return acpi.SpcrBaud57600
	case 115200:
		return acpi.SpcrBaud115200
	default:
		return acpi.SpcrBaudAsIs
	}
}

// buildSpcr emits the serial console table from the first serial port
// record. The console interrupt is reported as a global source
// number.
func buildSpcr(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error) {
	records, err := ctx.Store.GetRecords(cm.ArchSerialPortInfo, cm.NullToken)
	if err != nil {
		return acpi.TableParams{}, fmt.Errorf("tables: spcr needs a serial port: %w", err)
	}
	port := records[0].(*cm.SerialPortInfo)

	gsi, err := gsiIrqID(ctx, port.IntcPhandle, port.Interrupt)
	if err != nil {
		return acpi.TableParams{}, err
	}

	return acpi.TableParams{
		Signature: acpi.Sig("SPCR"),
		Revision:  2,
		Body: acpi.SpcrBody(acpi.SpcrParams{
			InterfaceType: uint8(port.PortSubtype),
			BaseAddress: acpi.GenericAddress{
				AddressSpaceID:   acpi.GasSystemMemory,
				RegisterBitWidth: 8,
				AccessSize:       port.AccessSize,
				Address:          port.BaseAddress,
			},
			InterruptType: acpi.SpcrInterruptRiscVPlic,
			GSI:           gsi,
			BaudRate:      spcrBaudRate(port.BaudRate),
		}),
	}, nil
}
