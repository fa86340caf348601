// Package tables turns the configuration manager store into an ACPI
// table set. Each table has a generator keyed by the generator ID in
// the platform's table list.
package tables

import (
	"fmt"
	"log/slog"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

// Generator IDs used in the platform table list.
const (
	GenFadt uint32 = iota + 1
	GenMadt
	GenDsdt
	GenRhct
	GenSpcr
	GenSsdtCpuTopology
	GenSsdtIntc
	GenSsdtPcie
)

// Context carries what a generator needs to build its table.
type Context struct {
	Store *cm.Store
	OEM   acpi.OEMInfo
	Log   *slog.Logger
}

// Generator builds one table from the store.
type Generator struct {
	ID        uint32
	Name      string
	Signature [4]byte
	Build     func(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error)
}

var registry = map[uint32]*Generator{}

func register(g *Generator) {
	if _, dup := registry[g.ID]; dup {
		panic(fmt.Sprintf("tables: duplicate generator id %d", g.ID))
	}
	registry[g.ID] = g
}

// Lookup finds the generator for a table list entry.
func Lookup(id uint32) (*Generator, error) {
	g, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("tables: generator %d: %w", id, cm.ErrNotFound)
	}
	return g, nil
}

// LookupName finds a generator by its registered name.
func LookupName(name string) (*Generator, error) {
	for _, g := range registry {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("tables: generator %q: %w", name, cm.ErrNotFound)
}

func init() {
	register(&Generator{ID: GenFadt, Name: "fadt", Signature: acpi.Sig("FACP"), Build: buildFadt})
	register(&Generator{ID: GenMadt, Name: "madt", Signature: acpi.Sig("APIC"), Build: buildMadt})
	register(&Generator{ID: GenDsdt, Name: "dsdt", Signature: acpi.Sig("DSDT"), Build: buildDsdt})
	register(&Generator{ID: GenRhct, Name: "rhct", Signature: acpi.Sig("RHCT"), Build: buildRhct})
	register(&Generator{ID: GenSpcr, Name: "spcr", Signature: acpi.Sig("SPCR"), Build: buildSpcr})
	register(&Generator{ID: GenSsdtCpuTopology, Name: "ssdt-cpu-topology", Signature: acpi.Sig("SSDT"), Build: buildSsdtCpuTopology})
	register(&Generator{ID: GenSsdtIntc, Name: "ssdt-intc", Signature: acpi.Sig("SSDT"), Build: buildSsdtIntc})
	register(&Generator{ID: GenSsdtPcie, Name: "ssdt-pcie", Signature: acpi.Sig("SSDT"), Build: buildSsdtPcie})
}

// rintcRecords fetches the per-hart records most generators start
// from.
func rintcRecords(ctx *Context) ([]*cm.RintcInfo, error) {
	records, err := ctx.Store.GetRecords(cm.RiscVRintcInfo, cm.NullToken)
	if err != nil {
		return nil, err
	}
	out := make([]*cm.RintcInfo, len(records))
	for i, r := range records {
		out[i] = r.(*cm.RintcInfo)
	}
	return out, nil
}
