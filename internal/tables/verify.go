package tables

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

type checkEntry struct {
	signature uint32
	mandatory bool
	declared  bool
	installed bool
}

// Verifier checks the platform table list against the tables a
// bootable system needs. Tables already present on the system are
// marked installed; declaring one of those again is a conflict.
type Verifier struct {
	log     *slog.Logger
	entries []checkEntry
}

// NewVerifier builds the default checklist.
func NewVerifier(log *slog.Logger) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{
		log: log,
		entries: []checkEntry{
			{signature: acpi.SigValue("FACP"), mandatory: true},
			{signature: acpi.SigValue("APIC"), mandatory: true},
			{signature: acpi.SigValue("DSDT"), mandatory: true},
			{signature: acpi.SigValue("RHCT"), mandatory: true},
			{signature: acpi.SigValue("SPCR")},
		},
	}
}

// MarkInstalled records a table signature already present on the
// system.
func (v *Verifier) MarkInstalled(signature uint32) {
	for i := range v.entries {
		if v.entries[i].signature == signature {
			v.entries[i].installed = true
		}
	}
}

func sigString(signature uint32) string {
	return string([]byte{byte(signature), byte(signature >> 8), byte(signature >> 16), byte(signature >> 24)})
}

// Check validates the table list. Every violation is reported, not
// just the first: the combined error matches each underlying cause
// with errors.Is.
func (v *Verifier) Check(infos []cm.AcpiTableInfo) error {
	var errs []error

	for _, info := range infos {
		for i := range v.entries {
			e := &v.entries[i]
			if e.signature != info.TableSignature {
				continue
			}
			if e.installed {
				errs = append(errs, fmt.Errorf("tables: %s declared but already present: %w",
					sigString(e.signature), cm.ErrAlreadyInstalled))
			}
			e.declared = true
		}
	}

	for _, e := range v.entries {
		if e.declared || e.installed {
			continue
		}
		if e.mandatory {
			errs = append(errs, fmt.Errorf("tables: mandatory table %s not declared: %w",
				sigString(e.signature), cm.ErrNotFound))
			continue
		}
		v.log.Warn("optional table not declared", "signature", sigString(e.signature))
	}

	return errors.Join(errs...)
}
