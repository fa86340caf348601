package cm

import "fmt"

// Namespace partitions the object ID space.
type Namespace uint8

const (
	NamespaceStandard Namespace = iota
	NamespaceArchCommon
	NamespaceRiscV
)

func (n Namespace) String() string {
	switch n {
	case NamespaceStandard:
		return "std"
	case NamespaceArchCommon:
		return "arch"
	case NamespaceRiscV:
		return "riscv"
	default:
		return fmt.Sprintf("namespace(%d)", uint8(n))
	}
}

// ObjectID names one object type inside a namespace.
type ObjectID struct {
	Namespace Namespace
	Type      uint16
}

func (id ObjectID) String() string {
	if name, ok := objectNames[id]; ok {
		return fmt.Sprintf("%s/%s", id.Namespace, name)
	}
	return fmt.Sprintf("%s/type(%d)", id.Namespace, id.Type)
}

// Standard namespace object types.
const (
	StdObjConfigurationManagerInfo uint16 = iota
	StdObjAcpiTableList
)

// Arch common namespace object types.
const (
	ArchObjPowerManagementProfileInfo uint16 = iota
	ArchObjSerialPortInfo
	ArchObjConsolePortInfo
	ArchObjFixedFeatureFlags
	ArchObjCpcInfo
	ArchObjLpiInfo
	ArchObjPciConfigSpaceInfo
	ArchObjPciAddressMapInfo
	ArchObjPciInterruptMapInfo
	ArchObjObjRef
	ArchObjProcHierarchyInfo
	ArchObjHypervisorVendorIdentity
)

// RISC-V namespace object types.
const (
	RiscVObjRintcInfo uint16 = iota
	RiscVObjImsicInfo
	RiscVObjAplicInfo
	RiscVObjPlicInfo
	RiscVObjIsaStringInfo
	RiscVObjCmoInfo
	RiscVObjTimerInfo
)

// Well known object IDs.
var (
	StdConfigurationManagerInfo = ObjectID{NamespaceStandard, StdObjConfigurationManagerInfo}
	StdAcpiTableList            = ObjectID{NamespaceStandard, StdObjAcpiTableList}

	ArchPowerManagementProfileInfo = ObjectID{NamespaceArchCommon, ArchObjPowerManagementProfileInfo}
	ArchSerialPortInfo             = ObjectID{NamespaceArchCommon, ArchObjSerialPortInfo}
	ArchConsolePortInfo            = ObjectID{NamespaceArchCommon, ArchObjConsolePortInfo}
	ArchFixedFeatureFlags          = ObjectID{NamespaceArchCommon, ArchObjFixedFeatureFlags}
	ArchCpcInfo                    = ObjectID{NamespaceArchCommon, ArchObjCpcInfo}
	ArchLpiInfo                    = ObjectID{NamespaceArchCommon, ArchObjLpiInfo}
	ArchPciConfigSpaceInfo         = ObjectID{NamespaceArchCommon, ArchObjPciConfigSpaceInfo}
	ArchPciAddressMapInfo          = ObjectID{NamespaceArchCommon, ArchObjPciAddressMapInfo}
	ArchPciInterruptMapInfo        = ObjectID{NamespaceArchCommon, ArchObjPciInterruptMapInfo}
	ArchObjRefID                   = ObjectID{NamespaceArchCommon, ArchObjObjRef}
	ArchProcHierarchyInfo          = ObjectID{NamespaceArchCommon, ArchObjProcHierarchyInfo}
	ArchHypervisorVendorIdentity   = ObjectID{NamespaceArchCommon, ArchObjHypervisorVendorIdentity}

	RiscVRintcInfo     = ObjectID{NamespaceRiscV, RiscVObjRintcInfo}
	RiscVImsicInfo     = ObjectID{NamespaceRiscV, RiscVObjImsicInfo}
	RiscVAplicInfo     = ObjectID{NamespaceRiscV, RiscVObjAplicInfo}
	RiscVPlicInfo      = ObjectID{NamespaceRiscV, RiscVObjPlicInfo}
	RiscVIsaStringInfo = ObjectID{NamespaceRiscV, RiscVObjIsaStringInfo}
	RiscVCmoInfo       = ObjectID{NamespaceRiscV, RiscVObjCmoInfo}
	RiscVTimerInfo     = ObjectID{NamespaceRiscV, RiscVObjTimerInfo}
)

var objectNames = map[ObjectID]string{
	StdConfigurationManagerInfo: "ConfigurationManagerInfo",
	StdAcpiTableList:            "AcpiTableList",

	ArchPowerManagementProfileInfo: "PowerManagementProfileInfo",
	ArchSerialPortInfo:             "SerialPortInfo",
	ArchConsolePortInfo:            "ConsolePortInfo",
	ArchFixedFeatureFlags:          "FixedFeatureFlags",
	ArchCpcInfo:                    "CpcInfo",
	ArchLpiInfo:                    "LpiInfo",
	ArchPciConfigSpaceInfo:         "PciConfigSpaceInfo",
	ArchPciAddressMapInfo:          "PciAddressMapInfo",
	ArchPciInterruptMapInfo:        "PciInterruptMapInfo",
	ArchObjRefID:                   "ObjRef",
	ArchProcHierarchyInfo:          "ProcHierarchyInfo",
	ArchHypervisorVendorIdentity:   "HypervisorVendorIdentity",

	RiscVRintcInfo:     "RintcInfo",
	RiscVImsicInfo:     "ImsicInfo",
	RiscVAplicInfo:     "AplicInfo",
	RiscVPlicInfo:      "PlicInfo",
	RiscVIsaStringInfo: "IsaStringInfo",
	RiscVCmoInfo:       "CmoInfo",
	RiscVTimerInfo:     "TimerInfo",
}
