package tables

import (
	"fmt"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/aml"
	"github.com/tinyrange/dyntables/internal/cm"
)

// buildSsdtCpuTopology emits one processor device per hart under
// \_SB. Harts with performance control data get a _CPC package.
func buildSsdtCpuTopology(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error) {
	harts, err := rintcRecords(ctx)
	if err != nil {
		return acpi.TableParams{}, err
	}

	var devices [][]byte
	for _, h := range harts {
		if h.EtToken != cm.NullToken {
			return acpi.TableParams{}, fmt.Errorf("tables: hart %d has trace device data: %w",
				h.AcpiProcessorUID, cm.ErrUnsupported)
		}

		terms := [][]byte{
			aml.Name("_HID", aml.String("ACPI0007")),
			aml.Name("_UID", aml.Integer(uint64(h.AcpiProcessorUID))),
		}

		if h.CpcToken != cm.NullToken {
			records, err := ctx.Store.GetRecords(cm.ArchCpcInfo, h.CpcToken)
			if err != nil {
				return acpi.TableParams{}, fmt.Errorf("tables: hart %d cpc: %w", h.AcpiProcessorUID, err)
			}
			terms = append(terms, aml.Name("_CPC", cpcPackage(records[0].(*cm.CpcInfo))))
		}

		devices = append(devices, aml.Device(fmt.Sprintf("C%03X", h.AcpiProcessorUID), terms...))
	}

	return acpi.TableParams{
		Signature:  acpi.Sig("SSDT"),
		Revision:   2,
		OEMTableID: acpi.TableID("CPUTOPO"),
		Body:       aml.Scope("\\_SB_", devices...),
	}, nil
}

// cpcEntry encodes one _CPC element: a register resource when the
// register is populated, otherwise the integer form.
func cpcEntry(reg acpi.GenericAddress, integer uint32) []byte {
	if reg.RegisterBitWidth != 0 || reg.Address != 0 {
		return aml.ResourceTemplate(
			aml.Register(reg.AddressSpaceID, reg.RegisterBitWidth, reg.RegisterBitOffset, reg.AccessSize, reg.Address),
		)
	}
	return aml.Integer(uint64(integer))
}

// cpcPackage encodes the revision 3 _CPC package.
func cpcPackage(cpc *cm.CpcInfo) []byte {
	registerOnly := func(reg acpi.GenericAddress) []byte {
		return aml.ResourceTemplate(
			aml.Register(reg.AddressSpaceID, reg.RegisterBitWidth, reg.RegisterBitOffset, reg.AccessSize, reg.Address),
		)
	}

	return aml.Package(
		aml.Integer(23),
		aml.Integer(uint64(cpc.Revision)),
		cpcEntry(cpc.HighestPerformanceBuffer, cpc.HighestPerformanceInteger),
		cpcEntry(cpc.NominalPerformanceBuffer, cpc.NominalPerformanceInteger),
		cpcEntry(cpc.LowestNonlinearPerformanceBuffer, cpc.LowestNonlinearPerformanceInteger),
		cpcEntry(cpc.LowestPerformanceBuffer, cpc.LowestPerformanceInteger),
		registerOnly(cpc.GuaranteedPerformanceRegister),
		registerOnly(cpc.DesiredPerformanceRegister),
		registerOnly(cpc.MinimumPerformanceRegister),
		registerOnly(cpc.MaximumPerformanceRegister),
		registerOnly(cpc.PerformanceReductionToleranceReg),
		registerOnly(cpc.TimeWindowRegister),
		cpcEntry(cpc.CounterWraparoundTimeBuffer, cpc.CounterWraparoundTimeInteger),
		registerOnly(cpc.ReferencePerformanceCounterReg),
		registerOnly(cpc.DeliveredPerformanceCounterReg),
		registerOnly(cpc.PerformanceLimitedRegister),
		registerOnly(cpc.CPPCEnableRegister),
		cpcEntry(cpc.AutonomousSelectionEnableBuffer, cpc.AutonomousSelectionEnableInteger),
		registerOnly(cpc.AutonomousActivityWindowRegister),
		registerOnly(cpc.EnergyPerformancePreferenceReg),
		aml.Integer(uint64(cpc.ReferencePerformanceInteger)),
		aml.Integer(uint64(cpc.LowestFrequencyInteger)),
		aml.Integer(uint64(cpc.NominalFrequencyInteger)),
	)
}
