package hwparse

import (
	"fmt"

	"github.com/tinyrange/dyntables/internal/cm"
	"github.com/tinyrange/dyntables/internal/fdt"
)

// PCI address space codes in the phys.hi cell of ranges rows.
const (
	pciSpaceShift = 24
	pciSpaceMask  = 0x03
)

// parsePciConfigSpaces describes ECAM host bridges. Each bridge gets
// its address and interrupt translation rows stored as individually
// tokenized records, tied to the config space record through
// reference arrays.
func parsePciConfigSpaces(s *Session) error {
	t := s.Tree

	nodes := compatNodes(t, "pci-host-ecam-generic")
	if len(nodes) == 0 {
		return fmt.Errorf("no ecam nodes: %w", cm.ErrNotFound)
	}

	for i, node := range nodes {
		if err := s.parseHostBridge(node, uint16(i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) parseHostBridge(node int, segment uint16) error {
	t := s.Tree

	parent := parentOf(t, node)
	ecamBase, _, ok := regEntry(t, parent, node, 0)
	if !ok {
		return fmt.Errorf("ecam node %s has no reg: %w", t.NodeName(node), cm.ErrAborted)
	}

	busRange, ok := t.Property(node, "bus-range")
	startBus, endBus := uint8(0), uint8(255)
	if ok {
		cells := fdt.Cells(busRange)
		if len(cells) == 2 {
			startBus, endBus = uint8(cells[0]), uint8(cells[1])
		}
	}

	addrMapToken, err := s.parseRanges(node, parent)
	if err != nil {
		return err
	}
	intMapToken, err := s.parseInterruptMap(node)
	if err != nil {
		return err
	}

	if _, err := s.Store.Add(cm.ArchPciConfigSpaceInfo, cm.PciConfigSpaceInfo{
		BaseAddress:           ecamBase,
		PciSegmentGroupNumber: segment,
		StartBusNumber:        startBus,
		EndBusNumber:          endBus,
		AddressMapToken:       addrMapToken,
		InterruptMapToken:     intMapToken,
	}); err != nil {
		return err
	}

	s.Log.Info("parsed host bridge", "segment", segment, "ecam", fmt.Sprintf("%#x", ecamBase), "buses", fmt.Sprintf("%d-%d", startBus, endBus))
	return nil
}

// parseRanges turns the bridge ranges rows into address map records
// and returns the token of their reference array.
func (s *Session) parseRanges(node, parent int) (cm.Token, error) {
	t := s.Tree

	prop, ok := t.Property(node, "ranges")
	if !ok {
		return cm.NullToken, fmt.Errorf("ecam node %s has no ranges: %w", t.NodeName(node), cm.ErrAborted)
	}
	cells := fdt.Cells(prop)

	// Rows are pci phys.hi, pci address, cpu address, size.
	parentAddrCells := t.AddressCells(parent)
	stride := 3 + parentAddrCells + 2
	if len(cells)%stride != 0 {
		return cm.NullToken, fmt.Errorf("ecam ranges has %d cells, stride %d: %w", len(cells), stride, cm.ErrInvalidArgument)
	}

	var refs []any
	for row := 0; row+stride <= len(cells); row += stride {
		physHi := cells[row]
		space := uint8(physHi >> pciSpaceShift & pciSpaceMask)
		if space == 0 {
			// Configuration space rows carry no window.
			continue
		}

		pciAddr := uint64(cells[row+1])<<32 | uint64(cells[row+2])
		var cpuAddr uint64
		for i := 0; i < parentAddrCells; i++ {
			cpuAddr = cpuAddr<<32 | uint64(cells[row+3+i])
		}
		size := uint64(cells[row+3+parentAddrCells])<<32 | uint64(cells[row+4+parentAddrCells])

		token, err := s.Store.Add(cm.ArchPciAddressMapInfo, cm.PciAddressMapInfo{
			SpaceCode:   space,
			PciAddress:  pciAddr,
			CpuAddress:  cpuAddr,
			AddressSize: size,
		})
		if err != nil {
			return cm.NullToken, err
		}
		refs = append(refs, cm.ObjRef{ReferenceToken: token})
	}

	if len(refs) == 0 {
		return cm.NullToken, fmt.Errorf("ecam node %s ranges has no memory or io windows: %w", t.NodeName(node), cm.ErrAborted)
	}
	return s.Store.Add(cm.ArchObjRefID, refs...)
}

// parseInterruptMap turns the bridge interrupt-map rows into
// interrupt map records and returns the token of their reference
// array. The parent interrupt specifier width follows the referenced
// controller's #interrupt-cells.
func (s *Session) parseInterruptMap(node int) (cm.Token, error) {
	t := s.Tree

	prop, ok := t.Property(node, "interrupt-map")
	if !ok {
		return cm.NullToken, fmt.Errorf("ecam node %s has no interrupt-map: %w", t.NodeName(node), cm.ErrAborted)
	}
	cells := fdt.Cells(prop)

	var refs []any
	for row := 0; row < len(cells); {
		// Child unit address is 3 cells, child interrupt 1 cell.
		if row+5 > len(cells) {
			return cm.NullToken, fmt.Errorf("ecam interrupt-map truncated at cell %d: %w", row, cm.ErrInvalidArgument)
		}
		physHi := cells[row]
		pin := cells[row+3]
		parentPhandle := cells[row+4]

		intcNode, found := t.NodeByPhandle(parentPhandle)
		if !found {
			return cm.NullToken, fmt.Errorf("interrupt-map references unknown phandle %d: %w", parentPhandle, cm.ErrAborted)
		}
		intCells, found := t.PropU32(intcNode, "#interrupt-cells")
		if !found || intCells == 0 || intCells > 2 {
			return cm.NullToken, fmt.Errorf("interrupt parent phandle %d has bad #interrupt-cells: %w", parentPhandle, cm.ErrAborted)
		}
		if row+5+int(intCells) > len(cells) {
			return cm.NullToken, fmt.Errorf("ecam interrupt-map truncated at cell %d: %w", row, cm.ErrInvalidArgument)
		}

		irq := cells[row+5]
		var flags uint32
		if intCells == 2 {
			flags = cells[row+6]
		}

		token, err := s.Store.Add(cm.ArchPciInterruptMapInfo, cm.PciInterruptMapInfo{
			PciBus:       uint8(physHi >> 16),
			PciDevice:    uint8(physHi >> 11 & 0x1f),
			PciInterrupt: uint8(pin),
			IntcPhandle:  parentPhandle,
			IntcInterrupt: cm.IntcInterrupt{
				Interrupt: irq,
				Flags:     flags,
			},
		})
		if err != nil {
			return cm.NullToken, err
		}
		refs = append(refs, cm.ObjRef{ReferenceToken: token})

		row += 5 + int(intCells)
	}

	if len(refs) == 0 {
		return cm.NullToken, fmt.Errorf("ecam node %s interrupt-map is empty: %w", t.NodeName(node), cm.ErrAborted)
	}
	return s.Store.Add(cm.ArchObjRefID, refs...)
}
