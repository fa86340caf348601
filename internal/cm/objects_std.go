package cm

import "github.com/tinyrange/dyntables/internal/acpi"

// ConfigurationManagerInfo identifies the object repository itself.
type ConfigurationManagerInfo struct {
	Revision uint32
	OemID    [6]byte
}

// AcpiTableInfo names one table the platform wants installed.
type AcpiTableInfo struct {
	TableSignature uint32
	TableRevision  uint8
	GeneratorID    uint32
	OemTableID     uint64
	OemRevision    uint32
	MinorRevision  uint8
}

// PowerManagementProfileInfo selects the FADT preferred PM profile.
type PowerManagementProfileInfo struct {
	PowerManagementProfile uint8
}

// FixedFeatureFlags feeds the FADT fixed feature flag word.
type FixedFeatureFlags struct {
	Flags uint32
}

// HypervisorVendorIdentity identifies the hypervisor in the FADT.
type HypervisorVendorIdentity struct {
	HypervisorVendorIdentity uint64
}

// SerialPortInfo describes a UART discovered from the hardware
// description.
type SerialPortInfo struct {
	BaseAddress       uint64
	Interrupt         uint32
	BaudRate          uint64
	Clock             uint32
	PortSubtype       uint16
	BaseAddressLength uint64
	AccessSize        uint8
	IntcPhandle       uint32
}

// PciConfigSpaceInfo describes one ECAM region. The map tokens
// reference ObjRef arrays pointing at address and interrupt map
// records.
type PciConfigSpaceInfo struct {
	BaseAddress           uint64
	PciSegmentGroupNumber uint16
	StartBusNumber        uint8
	EndBusNumber          uint8
	AddressMapToken       Token
	InterruptMapToken     Token
}

// PCI address space codes for PciAddressMapInfo.
const (
	PciSpaceCodeIO    uint8 = 1
	PciSpaceCode32Bit uint8 = 2
	PciSpaceCode64Bit uint8 = 3
)

// PciAddressMapInfo is one row of a host bridge ranges translation.
type PciAddressMapInfo struct {
	SpaceCode   uint8
	PciAddress  uint64
	CpuAddress  uint64
	AddressSize uint64
}

// IntcInterrupt is an interrupt controller interrupt with its trigger
// flags.
type IntcInterrupt struct {
	Interrupt uint32
	Flags     uint32
}

// PciInterruptMapInfo is one row of a host bridge interrupt-map. The
// phandle names the interrupt parent the row routes to.
type PciInterruptMapInfo struct {
	PciBus        uint8
	PciDevice     uint8
	PciInterrupt  uint8
	IntcPhandle   uint32
	IntcInterrupt IntcInterrupt
}

// ObjRef points at another object in the store. Arrays of ObjRef
// express one-to-many links.
type ObjRef struct {
	ReferenceToken Token
}

// ProcHierarchyInfo is one node of the processor topology. Token is the
// node's own identity and is filled by the token fixer when the record
// is added.
type ProcHierarchyInfo struct {
	Token                      Token
	Flags                      uint32
	ParentToken                Token
	AcpiIDObjectToken          Token
	NoOfPrivateResources       uint32
	PrivateResourcesArrayToken Token
}

// CpcInfo carries the _CPC continuous performance control registers for
// one processor.
type CpcInfo struct {
	Revision                          uint32
	HighestPerformanceBuffer          acpi.GenericAddress
	HighestPerformanceInteger         uint32
	NominalPerformanceBuffer          acpi.GenericAddress
	NominalPerformanceInteger         uint32
	LowestNonlinearPerformanceBuffer  acpi.GenericAddress
	LowestNonlinearPerformanceInteger uint32
	LowestPerformanceBuffer           acpi.GenericAddress
	LowestPerformanceInteger          uint32
	GuaranteedPerformanceRegister     acpi.GenericAddress
	DesiredPerformanceRegister        acpi.GenericAddress
	MinimumPerformanceRegister        acpi.GenericAddress
	MaximumPerformanceRegister        acpi.GenericAddress
	PerformanceReductionToleranceReg  acpi.GenericAddress
	TimeWindowRegister                acpi.GenericAddress
	CounterWraparoundTimeBuffer       acpi.GenericAddress
	CounterWraparoundTimeInteger      uint32
	ReferencePerformanceCounterReg    acpi.GenericAddress
	DeliveredPerformanceCounterReg    acpi.GenericAddress
	PerformanceLimitedRegister        acpi.GenericAddress
	CPPCEnableRegister                acpi.GenericAddress
	AutonomousSelectionEnableBuffer   acpi.GenericAddress
	AutonomousSelectionEnableInteger  uint32
	AutonomousActivityWindowRegister  acpi.GenericAddress
	EnergyPerformancePreferenceReg    acpi.GenericAddress
	ReferencePerformanceInteger       uint32
	LowestFrequencyInteger            uint32
	NominalFrequencyInteger           uint32
}

// LpiInfo describes one low power idle state.
type LpiInfo struct {
	MinResidency             uint32
	WorstCaseWakeLatency     uint32
	Flags                    uint32
	ArchFlags                uint32
	ResCntFreq               uint32
	EnableParentState        uint32
	IsInteger                uint8
	IntegerEntryMethod       uint64
	RegisterEntryMethod      acpi.GenericAddress
	ResidencyCounterRegister acpi.GenericAddress
	UsageCounterRegister     acpi.GenericAddress
	StateName                [16]byte
}
