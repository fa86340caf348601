package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
	"github.com/tinyrange/dyntables/internal/tables"
	"gopkg.in/yaml.v3"
)

// Config is the optional platform description loaded alongside the
// device tree. Everything has a usable default; the device tree
// remains the source of truth for discovered hardware.
type Config struct {
	TablesBase uint64 `yaml:"tablesBase,omitempty"`

	OEMID       string `yaml:"oemID,omitempty"`
	OEMTableID  string `yaml:"oemTableID,omitempty"`
	OEMRevision uint32 `yaml:"oemRevision,omitempty"`

	PowerProfile uint8  `yaml:"powerProfile,omitempty"`
	LowPowerIdle bool   `yaml:"lowPowerIdle,omitempty"`
	HypervisorID string `yaml:"hypervisorID,omitempty"`

	// Generator names overriding the default table list.
	Tables []string `yaml:"tables,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.TablesBase == 0 {
		c.TablesBase = 0x80000000
	}
}

func (c *Config) oem() acpi.OEMInfo {
	oem := acpi.DefaultOEM
	if c.OEMID != "" {
		oem.OEMID = [6]byte{}
		copy(oem.OEMID[:], c.OEMID)
	}
	if c.OEMTableID != "" {
		oem.OEMTableID = acpi.TableID(c.OEMTableID)
	}
	if c.OEMRevision != 0 {
		oem.OEMRevision = c.OEMRevision
	}
	return oem
}

// apply adds the platform policy objects and the table list to the
// store after hardware discovery has run.
func (c *Config) apply(store *cm.Store) error {
	mgr := cm.ConfigurationManagerInfo{Revision: c.OEMRevision}
	mgr.OemID = c.oem().OEMID
	if _, err := store.Add(cm.StdConfigurationManagerInfo, mgr); err != nil {
		return err
	}

	if c.PowerProfile != 0 {
		if _, err := store.Add(cm.ArchPowerManagementProfileInfo, cm.PowerManagementProfileInfo{
			PowerManagementProfile: c.PowerProfile,
		}); err != nil {
			return err
		}
	}

	if c.LowPowerIdle {
		if _, err := store.Add(cm.ArchFixedFeatureFlags, cm.FixedFeatureFlags{
			Flags: acpi.FadtLowPowerS0Capable,
		}); err != nil {
			return err
		}
	}

	if c.HypervisorID != "" {
		var id [8]byte
		copy(id[:], c.HypervisorID)
		if _, err := store.Add(cm.ArchHypervisorVendorIdentity, cm.HypervisorVendorIdentity{
			HypervisorVendorIdentity: binary.LittleEndian.Uint64(id[:]),
		}); err != nil {
			return err
		}
	}

	infos, err := c.tableList(store)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if _, err := store.Add(cm.StdAcpiTableList, info); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) tableList(store *cm.Store) ([]cm.AcpiTableInfo, error) {
	if len(c.Tables) == 0 {
		return tables.DefaultTableList(store), nil
	}

	infos := make([]cm.AcpiTableInfo, 0, len(c.Tables))
	for _, name := range c.Tables {
		g, err := tables.LookupName(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, cm.AcpiTableInfo{
			TableSignature: binary.LittleEndian.Uint32(g.Signature[:]),
			GeneratorID:    g.ID,
		})
	}
	return infos, nil
}
