package tables

import (
	"errors"
	"fmt"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

// buildRhct emits the hart capabilities table. The shared ISA and
// cache nodes are emitted once, then every hart points at them
// through its hart info node.
func buildRhct(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error) {
	harts, err := rintcRecords(ctx)
	if err != nil {
		return acpi.TableParams{}, err
	}

	timerRecords, err := ctx.Store.GetRecords(cm.RiscVTimerInfo, cm.NullToken)
	if err != nil {
		return acpi.TableParams{}, fmt.Errorf("tables: rhct needs timer info: %w", err)
	}
	timer := timerRecords[0].(*cm.TimerInfo)

	var flags uint32
	if timer.TimerCannotWakeCpu != 0 {
		flags |= 1 // timer cannot wake
	}

	body := acpi.NewRhctBody(flags, timer.TimeBaseFrequency)

	isaRecords, err := ctx.Store.GetRecords(cm.RiscVIsaStringInfo, cm.NullToken)
	if err != nil {
		return acpi.TableParams{}, fmt.Errorf("tables: rhct needs isa string: %w", err)
	}
	var offsets []uint32
	offsets = append(offsets, body.IsaNode(isaRecords[0].(*cm.IsaStringInfo).IsaString))

	if records, err := ctx.Store.GetRecords(cm.RiscVCmoInfo, cm.NullToken); err == nil {
		cmo := records[0].(*cm.CmoInfo)
		offsets = append(offsets, body.CmoNode(cmo.CbomBlockSize, cmo.CbopBlockSize, cmo.CbozBlockSize))
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	for _, h := range harts {
		body.HartInfoNode(h.AcpiProcessorUID, offsets)
	}

	return acpi.TableParams{
		Signature: acpi.Sig("RHCT"),
		Revision:  1,
		Body:      body.Bytes(),
	}, nil
}
