package cm

import "fmt"

// Descriptor is the transfer unit between the store and the table
// generators: one or more packed records of a single object type.
type Descriptor struct {
	ObjectID ObjectID
	Data     []byte
	Size     uint32
	Count    uint32
}

// NewDescriptor packs records into a descriptor. All records must be
// of the type registered for id.
func NewDescriptor(id ObjectID, records []any) (Descriptor, error) {
	desc := Descriptor{ObjectID: id, Count: uint32(len(records))}
	for _, record := range records {
		packed, err := PackRecord(record)
		if err != nil {
			return Descriptor{}, err
		}
		desc.Data = append(desc.Data, packed...)
	}
	desc.Size = uint32(len(desc.Data))

	if recordSize := RecordSize(id); recordSize != 0 && desc.Size != desc.Count*uint32(recordSize) {
		return Descriptor{}, fmt.Errorf("cm: %s descriptor size %d != %d records of %d bytes: %w",
			id, desc.Size, desc.Count, recordSize, ErrInvalidArgument)
	}
	return desc, nil
}

// Records decodes the descriptor back into typed records.
func (d Descriptor) Records() ([]any, error) {
	t, ok := RecordType(d.ObjectID)
	if !ok {
		return nil, fmt.Errorf("cm: %s has no record type: %w", d.ObjectID, ErrInvalidArgument)
	}

	var out []any
	data := d.Data
	for i := uint32(0); i < d.Count; i++ {
		record := newRecord(t)
		n, err := UnpackRecord(data, record)
		if err != nil {
			return nil, fmt.Errorf("cm: %s record %d: %w", d.ObjectID, i, err)
		}
		data = data[n:]
		out = append(out, record)
	}
	return out, nil
}
