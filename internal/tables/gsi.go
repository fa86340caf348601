package tables

import (
	"errors"
	"fmt"

	"github.com/tinyrange/dyntables/internal/cm"
)

// gsiIrqID maps a controller-local interrupt source to its global
// number. The owning controller is found by the phandle recorded at
// parse time, searching APLIC domains then PLICs.
func gsiIrqID(ctx *Context, phandle, irq uint32) (uint32, error) {
	if records, err := ctx.Store.GetRecords(cm.RiscVAplicInfo, cm.NullToken); err == nil {
		for _, r := range records {
			a := r.(*cm.AplicInfo)
			if a.Phandle == phandle {
				return a.GsiBase + irq, nil
			}
		}
	} else if !errors.Is(err, cm.ErrNotFound) {
		return 0, err
	}

	if records, err := ctx.Store.GetRecords(cm.RiscVPlicInfo, cm.NullToken); err == nil {
		for _, r := range records {
			p := r.(*cm.PlicInfo)
			if p.Phandle == phandle {
				return p.GsiBase + irq, nil
			}
		}
	} else if !errors.Is(err, cm.ErrNotFound) {
		return 0, err
	}

	return 0, fmt.Errorf("tables: no interrupt controller with phandle %d for irq %d: %w", phandle, irq, cm.ErrNotFound)
}
