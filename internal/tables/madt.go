package tables

import (
	"errors"
	"fmt"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

// buildMadt emits the interrupt controller table: one RINTC per hart
// followed by the machine interrupt controllers.
func buildMadt(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error) {
	harts, err := rintcRecords(ctx)
	if err != nil {
		return acpi.TableParams{}, err
	}

	seen := make(map[uint32]bool, len(harts))
	body := acpi.NewMadtBody()
	for _, h := range harts {
		if seen[h.AcpiProcessorUID] {
			return acpi.TableParams{}, fmt.Errorf("tables: duplicate processor uid %d: %w",
				h.AcpiProcessorUID, cm.ErrInvalidArgument)
		}
		seen[h.AcpiProcessorUID] = true
		body.Rintc(h.Version, h.Flags, h.HartID, h.AcpiProcessorUID, h.ExtIntCID, h.ImsicBaseAddress, h.ImsicSize)
	}

	if records, err := ctx.Store.GetRecords(cm.RiscVImsicInfo, cm.NullToken); err == nil {
		imsic := records[0].(*cm.ImsicInfo)
		body.Imsic(imsic.Version, imsic.NumIDs, imsic.NumGuestIDs,
			imsic.GuestIndexBits, imsic.HartIndexBits, imsic.GroupIndexBits, imsic.GroupIndexShift)
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	if records, err := ctx.Store.GetRecords(cm.RiscVAplicInfo, cm.NullToken); err == nil {
		for _, r := range records {
			a := r.(*cm.AplicInfo)
			body.Aplic(a.Version, a.AplicID, a.Flags, a.HwID, a.NumIdcs, a.NumSources, a.GsiBase, a.AplicAddress, a.AplicSize)
		}
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	if records, err := ctx.Store.GetRecords(cm.RiscVPlicInfo, cm.NullToken); err == nil {
		for _, r := range records {
			p := r.(*cm.PlicInfo)
			body.Plic(p.Version, p.PlicID, p.HwID, p.NumSources, p.MaxPriority, p.Flags, p.PlicSize, p.PlicAddress, p.GsiBase)
		}
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	return acpi.TableParams{
		Signature: acpi.Sig("APIC"),
		Revision:  7,
		Body:      body.Bytes(),
	}, nil
}
