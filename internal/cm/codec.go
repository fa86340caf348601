package cm

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Packer lets a record type own its wire encoding. Types without it
// are packed field by field, little endian, with no padding.
type Packer interface {
	PackRecord() []byte
}

// Unpacker is the decode side of Packer. It returns the bytes
// consumed, which lets variable length records share one buffer.
type Unpacker interface {
	UnpackRecord(b []byte) (int, error)
}

// recordTypes maps each object ID to its record type. The codec and
// the printer both walk it.
var recordTypes = map[ObjectID]reflect.Type{
	StdConfigurationManagerInfo: reflect.TypeOf(ConfigurationManagerInfo{}),
	StdAcpiTableList:            reflect.TypeOf(AcpiTableInfo{}),

	ArchPowerManagementProfileInfo: reflect.TypeOf(PowerManagementProfileInfo{}),
	ArchSerialPortInfo:             reflect.TypeOf(SerialPortInfo{}),
	ArchConsolePortInfo:            reflect.TypeOf(SerialPortInfo{}),
	ArchFixedFeatureFlags:          reflect.TypeOf(FixedFeatureFlags{}),
	ArchCpcInfo:                    reflect.TypeOf(CpcInfo{}),
	ArchLpiInfo:                    reflect.TypeOf(LpiInfo{}),
	ArchPciConfigSpaceInfo:         reflect.TypeOf(PciConfigSpaceInfo{}),
	ArchPciAddressMapInfo:          reflect.TypeOf(PciAddressMapInfo{}),
	ArchPciInterruptMapInfo:        reflect.TypeOf(PciInterruptMapInfo{}),
	ArchObjRefID:                   reflect.TypeOf(ObjRef{}),
	ArchProcHierarchyInfo:          reflect.TypeOf(ProcHierarchyInfo{}),
	ArchHypervisorVendorIdentity:   reflect.TypeOf(HypervisorVendorIdentity{}),

	RiscVRintcInfo:     reflect.TypeOf(RintcInfo{}),
	RiscVImsicInfo:     reflect.TypeOf(ImsicInfo{}),
	RiscVAplicInfo:     reflect.TypeOf(AplicInfo{}),
	RiscVPlicInfo:      reflect.TypeOf(PlicInfo{}),
	RiscVIsaStringInfo: reflect.TypeOf(IsaStringInfo{}),
	RiscVCmoInfo:       reflect.TypeOf(CmoInfo{}),
	RiscVTimerInfo:     reflect.TypeOf(TimerInfo{}),
}

// RecordType returns the Go type registered for an object ID.
func RecordType(id ObjectID) (reflect.Type, bool) {
	t, ok := recordTypes[id]
	return t, ok
}

// RecordSize returns the packed size of a fixed width record type, or
// 0 when records of the type are variable length.
func RecordSize(id ObjectID) int {
	t, ok := recordTypes[id]
	if !ok {
		return 0
	}
	if t.Implements(reflect.TypeOf((*Packer)(nil)).Elem()) {
		return 0
	}
	return packedSize(t)
}

func packedSize(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Uint8:
		return 1
	case reflect.Uint16:
		return 2
	case reflect.Uint32:
		return 4
	case reflect.Uint64:
		return 8
	case reflect.Array:
		return t.Len() * packedSize(t.Elem())
	case reflect.Struct:
		size := 0
		for i := 0; i < t.NumField(); i++ {
			size += packedSize(t.Field(i).Type)
		}
		return size
	default:
		panic(fmt.Sprintf("cm: unpackable kind %s", t.Kind()))
	}
}

// PackRecord encodes one record into its packed wire form.
func PackRecord(record any) ([]byte, error) {
	if p, ok := record.(Packer); ok {
		return p.PackRecord(), nil
	}

	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cm: pack %T: %w", record, ErrInvalidArgument)
	}

	out := make([]byte, 0, packedSize(v.Type()))
	return packValue(out, v), nil
}

func packValue(out []byte, v reflect.Value) []byte {
	switch v.Kind() {
	case reflect.Uint8:
		out = append(out, uint8(v.Uint()))
	case reflect.Uint16:
		out = binary.LittleEndian.AppendUint16(out, uint16(v.Uint()))
	case reflect.Uint32:
		out = binary.LittleEndian.AppendUint32(out, uint32(v.Uint()))
	case reflect.Uint64:
		out = binary.LittleEndian.AppendUint64(out, v.Uint())
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			out = packValue(out, v.Index(i))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			out = packValue(out, v.Field(i))
		}
	default:
		panic(fmt.Sprintf("cm: unpackable kind %s", v.Kind()))
	}
	return out
}

// UnpackRecord decodes one record from b into the struct pointed to by
// record, returning the bytes consumed.
func UnpackRecord(b []byte, record any) (int, error) {
	if u, ok := record.(Unpacker); ok {
		return u.UnpackRecord(b)
	}

	v := reflect.ValueOf(record)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return 0, fmt.Errorf("cm: unpack %T: %w", record, ErrInvalidArgument)
	}

	size := packedSize(v.Elem().Type())
	if len(b) < size {
		return 0, fmt.Errorf("cm: unpack %T: %d bytes short: %w", record, size-len(b), ErrInvalidArgument)
	}
	unpackValue(b, v.Elem())
	return size, nil
}

func unpackValue(b []byte, v reflect.Value) []byte {
	switch v.Kind() {
	case reflect.Uint8:
		v.SetUint(uint64(b[0]))
		b = b[1:]
	case reflect.Uint16:
		v.SetUint(uint64(binary.LittleEndian.Uint16(b)))
		b = b[2:]
	case reflect.Uint32:
		v.SetUint(uint64(binary.LittleEndian.Uint32(b)))
		b = b[4:]
	case reflect.Uint64:
		v.SetUint(binary.LittleEndian.Uint64(b))
		b = b[8:]
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			b = unpackValue(b, v.Index(i))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			b = unpackValue(b, v.Field(i))
		}
	default:
		panic(fmt.Sprintf("cm: unpackable kind %s", v.Kind()))
	}
	return b
}
