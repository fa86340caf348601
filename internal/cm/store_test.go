package cm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddAndGetAll(t *testing.T) {
	s := NewStore()

	for i := 0; i < 3; i++ {
		if _, err := s.Add(RiscVRintcInfo, RintcInfo{HartID: uint64(i), AcpiProcessorUID: uint32(i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	desc, err := s.Get(RiscVRintcInfo, NullToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if desc.Count != 3 {
		t.Fatalf("count = %d, want 3", desc.Count)
	}
	if desc.Size != desc.Count*uint32(RecordSize(RiscVRintcInfo)) {
		t.Fatalf("size = %d, count = %d, record size = %d", desc.Size, desc.Count, RecordSize(RiscVRintcInfo))
	}

	records, err := desc.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	for i, record := range records {
		info := record.(*RintcInfo)
		if info.AcpiProcessorUID != uint32(i) {
			t.Fatalf("record %d uid = %d", i, info.AcpiProcessorUID)
		}
	}
}

func TestGetByToken(t *testing.T) {
	s := NewStore()

	tok1, err := s.Add(ArchObjRefID, ObjRef{ReferenceToken: 11}, ObjRef{ReferenceToken: 12})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	tok2, err := s.Add(ArchObjRefID, ObjRef{ReferenceToken: 13})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tok1 == NullToken || tok1 == tok2 {
		t.Fatalf("tokens = %d, %d", tok1, tok2)
	}

	desc, err := s.Get(ArchObjRefID, tok1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if desc.Count != 2 {
		t.Fatalf("group count = %d, want 2", desc.Count)
	}

	if _, err := s.Get(ArchObjRefID, Token(9999)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown token err = %v", err)
	}
	if _, err := s.Get(RiscVPlicInfo, NullToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("absent type err = %v", err)
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	want := PlicInfo{
		Version:     1,
		PlicID:      2,
		NumSources:  96,
		MaxPriority: 7,
		PlicSize:    0x600000,
		PlicAddress: 0xc000000,
		GsiBase:     32,
		Phandle:     3,
	}

	desc, err := NewDescriptor(RiscVPlicInfo, []any{want})
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	records, err := desc.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	got := *records[0].(*PlicInfo)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestIsaStringRecord(t *testing.T) {
	info := NewIsaStringInfo("rv64imafdc_zicsr")
	if info.Length != 17 {
		t.Fatalf("length = %d", info.Length)
	}

	desc, err := NewDescriptor(RiscVIsaStringInfo, []any{info})
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	if desc.Size != uint32(2+info.Length) {
		t.Fatalf("descriptor size = %d", desc.Size)
	}

	records, err := desc.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if got := records[0].(*IsaStringInfo).IsaString; got != "rv64imafdc_zicsr" {
		t.Fatalf("isa = %q", got)
	}
}

func TestProcHierarchyTokenFixer(t *testing.T) {
	s := NewStore()

	tok, err := s.Add(ArchProcHierarchyInfo, ProcHierarchyInfo{Flags: 1})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	records, err := s.GetRecords(ArchProcHierarchyInfo, tok)
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if got := records[0].(*ProcHierarchyInfo).Token; got != tok {
		t.Fatalf("self token = %d, want %d", got, tok)
	}

	// A record that already carries a token was inserted twice.
	if _, err := s.Add(ArchProcHierarchyInfo, ProcHierarchyInfo{Token: 5}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("double insert err = %v", err)
	}
}

func TestAddRejectsWrongType(t *testing.T) {
	s := NewStore()
	if _, err := s.Add(RiscVRintcInfo, PlicInfo{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownObjectTypeIsInvalidArgument(t *testing.T) {
	s := NewStore()
	bogus := ObjectID{NamespaceRiscV, 0xff}

	if _, err := s.Add(bogus, TimerInfo{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("add err = %v", err)
	}
	if _, err := s.GetRecords(bogus, NullToken); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("get err = %v", err)
	}

	// A registered type with nothing stored stays a not-found case.
	if _, err := s.GetRecords(RiscVTimerInfo, NullToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("absent err = %v", err)
	}
}

func TestPrinterRendersStore(t *testing.T) {
	s := NewStore()
	if _, err := s.Add(RiscVTimerInfo, TimerInfo{TimeBaseFrequency: 10000000}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	if err := p.Print(s); err != nil {
		t.Fatalf("Print: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"riscv/TimerInfo", "token 1", "TimeBaseFrequency"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
