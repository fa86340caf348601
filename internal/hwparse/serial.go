package hwparse

import (
	"fmt"

	"github.com/tinyrange/dyntables/internal/acpi"
	"github.com/tinyrange/dyntables/internal/cm"
)

// Serial port subtypes matching the SPCR interface field.
const (
	SerialSubtype16550    = acpi.SpcrInterface16550
	SerialSubtype16550Gas = acpi.SpcrInterface16550Gas
)

// parseSerialPorts picks the first enabled ns16550 compatible UART as
// the console.
func parseSerialPorts(s *Session) error {
	t := s.Tree

	nodes := compatNodes(t, "ns16550a", "ns16550", "snps,dw-apb-uart")
	if len(nodes) == 0 {
		return fmt.Errorf("no serial nodes: %w", cm.ErrNotFound)
	}

	node := nodes[0]
	parent := parentOf(t, node)
	base, size, ok := regEntry(t, parent, node, 0)
	if !ok {
		return fmt.Errorf("serial node %s has no reg: %w", t.NodeName(node), cm.ErrAborted)
	}

	var interrupt uint32
	if irq, found := t.PropU32(node, "interrupts"); found {
		interrupt = irq
	}
	intcPhandle := interruptParent(t, node)

	clock, _ := t.PropU32(node, "clock-frequency")
	baud, hasBaud := t.PropU32(node, "current-speed")
	if !hasBaud {
		baud = 115200
	}

	if _, err := s.Store.Add(cm.ArchSerialPortInfo, cm.SerialPortInfo{
		BaseAddress:       base,
		BaseAddressLength: size,
		Interrupt:         interrupt,
		BaudRate:          uint64(baud),
		Clock:             clock,
		PortSubtype:       uint16(SerialSubtype16550),
		AccessSize:        acpi.GasAccessByte,
		IntcPhandle:       intcPhandle,
	}); err != nil {
		return err
	}

	s.Log.Info("parsed serial port", "base", fmt.Sprintf("%#x", base), "irq", interrupt)
	return nil
}
