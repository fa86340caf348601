package tables

import (
	"errors"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

// buildFadt emits the hardware-reduced fixed description table. The
// fixed feature flags, power profile and hypervisor identity all come
// from optional store objects.
func buildFadt(ctx *Context, info cm.AcpiTableInfo) (acpi.TableParams, error) {
	params := acpi.FadtParams{
		Flags:        acpi.FadtHwReducedAcpi,
		MinorVersion: info.MinorRevision,
	}

	if records, err := ctx.Store.GetRecords(cm.ArchFixedFeatureFlags, cm.NullToken); err == nil {
		params.Flags |= records[0].(*cm.FixedFeatureFlags).Flags
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	if records, err := ctx.Store.GetRecords(cm.ArchHypervisorVendorIdentity, cm.NullToken); err == nil {
		params.HypervisorVendorIdentity = records[0].(*cm.HypervisorVendorIdentity).HypervisorVendorIdentity
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	var pmProfile uint8
	if records, err := ctx.Store.GetRecords(cm.ArchPowerManagementProfileInfo, cm.NullToken); err == nil {
		pmProfile = records[0].(*cm.PowerManagementProfileInfo).PowerManagementProfile
	} else if !errors.Is(err, cm.ErrNotFound) {
		return acpi.TableParams{}, err
	}

	return acpi.TableParams{
		Signature: acpi.Sig("FACP"),
		Revision:  6,
		Body:      acpi.FadtBody(params, pmProfile),
	}, nil
}
