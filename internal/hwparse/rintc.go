package hwparse

import (
	"fmt"

	"github.com/tinyrange/dyntables/internal/cm"
	"github.com/tinyrange/dyntables/internal/fdt"
)

const (
	// Supervisor external interrupt number. Controller contexts
	// wired to this interrupt are the ones the OS drives.
	irqSExt = 9

	imsicMmioPageSize = 4096

	// Group index shift when the device tree leaves it out.
	imsicDefaultGroupShift = 24

	rintcVersion = 1
	imsicVersion = 1
	aplicVersion = 1
	plicVersion  = 1

	rintcFlagEnabled = 1 << 0
)

// hartEntry pairs an in-progress RINTC record with the phandle of the
// hart's cpu-intc node, which is how controller contexts reference
// harts.
type hartEntry struct {
	info    cm.RintcInfo
	phandle uint32
}

// parseRintc walks /cpus and the interrupt controllers. Harts are
// collected first, then the controller walk patches the external
// interrupt controller IDs and IMSIC pages into them, then everything
// is added to the store in one pass.
func parseRintc(s *Session) error {
	t := s.Tree

	cpus, ok := t.PathOffset("/cpus")
	if !ok {
		return fmt.Errorf("no /cpus node: %w", cm.ErrNotFound)
	}

	timebase, ok := t.PropU32(cpus, "timebase-frequency")
	if !ok {
		return fmt.Errorf("/cpus has no timebase-frequency: %w", cm.ErrAborted)
	}

	harts, err := s.collectHarts(cpus)
	if err != nil {
		return err
	}
	if len(harts) == 0 {
		return fmt.Errorf("no enabled cpu nodes: %w", cm.ErrNotFound)
	}

	if !s.timerDone {
		s.timerDone = true
		cannotWake := uint8(0)
		if timers := compatNodes(t, "riscv,timer"); len(timers) > 0 &&
			t.HasProperty(timers[0], "riscv,timer-cannot-wake-cpu") {
			cannotWake = 1
		}
		if _, err := s.Store.Add(cm.RiscVTimerInfo, cm.TimerInfo{
			TimerCannotWakeCpu: cannotWake,
			TimeBaseFrequency:  uint64(timebase),
		}); err != nil {
			return err
		}
	}

	if err := s.parseImsic(harts); err != nil {
		return err
	}
	if err := s.parseAplic(harts); err != nil {
		return err
	}
	if err := s.parsePlic(harts); err != nil {
		return err
	}

	records := make([]any, len(harts))
	for i := range harts {
		records[i] = harts[i].info
	}
	if _, err := s.Store.Add(cm.RiscVRintcInfo, records...); err != nil {
		return err
	}

	s.Log.Info("parsed cpu topology", "harts", len(harts), "timebase", timebase)
	return nil
}

// collectHarts walks the cpu nodes in tree order, assigning ACPI
// processor UIDs from zero and latching the machine-wide ISA and
// cache block properties off the first hart that carries them.
func (s *Session) collectHarts(cpus int) ([]*hartEntry, error) {
	t := s.Tree
	var harts []*hartEntry

	node, ok := t.FirstSubnode(cpus)
	for ok {
		deviceType, _ := t.PropString(node, "device_type")
		if deviceType != "cpu" {
			node, ok = t.NextSubnode(node)
			continue
		}
		if !nodeEnabled(t, node) {
			s.Log.Debug("skipping disabled hart", "node", t.NodeName(node))
			node, ok = t.NextSubnode(node)
			continue
		}

		hartID, _, found := regEntry(t, cpus, node, 0)
		if !found {
			return nil, fmt.Errorf("cpu node %s has no reg: %w", t.NodeName(node), cm.ErrAborted)
		}

		phandle, err := cpuIntcPhandle(t, node)
		if err != nil {
			return nil, err
		}

		if err := s.latchIsaString(node); err != nil {
			return nil, err
		}
		if err := s.latchCmoInfo(node); err != nil {
			return nil, err
		}

		harts = append(harts, &hartEntry{
			info: cm.RintcInfo{
				Version:          rintcVersion,
				Flags:            rintcFlagEnabled,
				HartID:           hartID,
				AcpiProcessorUID: s.nextUID,
			},
			phandle: phandle,
		})
		s.nextUID++

		node, ok = t.NextSubnode(node)
	}
	return harts, nil
}

// cpuIntcPhandle finds the hart's local interrupt controller child
// and returns its phandle.
func cpuIntcPhandle(t *fdt.Tree, cpu int) (uint32, error) {
	node, ok := t.FirstSubnode(cpu)
	for ok {
		if nodeIsCompatible(t, node, "riscv,cpu-intc") {
			if ph, found := t.PropU32(node, "phandle"); found {
				return ph, nil
			}
			return 0, fmt.Errorf("cpu-intc under %s has no phandle: %w", t.NodeName(cpu), cm.ErrAborted)
		}
		node, ok = t.NextSubnode(node)
	}
	return 0, fmt.Errorf("cpu node %s has no cpu-intc child: %w", t.NodeName(cpu), cm.ErrAborted)
}

func (s *Session) latchIsaString(cpu int) error {
	if s.isaDone {
		return nil
	}
	isa, ok := s.Tree.PropString(cpu, "riscv,isa")
	if !ok {
		return nil
	}
	s.isaDone = true
	_, err := s.Store.Add(cm.RiscVIsaStringInfo, cm.NewIsaStringInfo(isa))
	return err
}

func (s *Session) latchCmoInfo(cpu int) error {
	if s.cmoDone {
		return nil
	}
	t := s.Tree

	cbom, hasCbom := t.PropU32(cpu, "riscv,cbom-block-size")
	cbop, _ := t.PropU32(cpu, "riscv,cbop-block-size")
	cboz, hasCboz := t.PropU32(cpu, "riscv,cboz-block-size")
	if !hasCbom && !hasCboz {
		return nil
	}

	s.cmoDone = true
	_, err := s.Store.Add(cm.RiscVCmoInfo, cm.CmoInfo{
		CbomBlockSize: log2(cbom),
		CbopBlockSize: log2(cbop),
		CbozBlockSize: log2(cboz),
	})
	return err
}

// log2 returns the bit position of a power-of-two block size, 0 for 0.
func log2(v uint32) uint8 {
	var n uint8
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// ceilLog2 returns the number of bits needed to index n entries.
func ceilLog2(n uint32) uint32 {
	var b uint32
	for uint32(1)<<b < n {
		b++
	}
	return b
}

// extContexts decodes interrupts-extended into (phandle, irq) pairs.
func extContexts(t *fdt.Tree, node int) [][2]uint32 {
	prop, ok := t.Property(node, "interrupts-extended")
	if !ok {
		return nil
	}
	cells := fdt.Cells(prop)

	var out [][2]uint32
	for i := 0; i+1 < len(cells); i += 2 {
		out = append(out, [2]uint32{cells[i], cells[i+1]})
	}
	return out
}

// aplicDeliversToSImsic reports whether an MSI-mode APLIC domain is
// the supervisor one. The msi-parent reference is chased to the IMSIC
// node and its first context interrupt decides the privilege level.
func aplicDeliversToSImsic(t *fdt.Tree, node int) bool {
	ph, ok := t.PropU32(node, "msi-parent")
	if !ok {
		return false
	}
	imsic, found := t.NodeByPhandle(ph)
	if !found {
		return false
	}
	contexts := extContexts(t, imsic)
	return len(contexts) > 0 && contexts[0][1] == irqSExt
}

func findHart(harts []*hartEntry, phandle uint32) *hartEntry {
	for _, h := range harts {
		if h.phandle == phandle {
			return h
		}
	}
	return nil
}

// parseImsic handles the supervisor-mode incoming MSI controller. The
// machine-wide record is stored once, and each referenced hart gets
// its per-hart interrupt file pages carved out of the reg windows in
// context order.
func (s *Session) parseImsic(harts []*hartEntry) error {
	t := s.Tree

	for _, node := range compatNodes(t, "riscv,imsics") {
		contexts := extContexts(t, node)
		if len(contexts) == 0 || contexts[0][1] != irqSExt {
			continue
		}

		var nContexts uint32
		for _, pair := range contexts {
			if pair[1] == irqSExt {
				nContexts++
			}
		}

		numIDs, _ := t.PropU32(node, "riscv,num-ids")
		numGuestIDs, ok := t.PropU32(node, "riscv,num-guest-ids")
		if !ok {
			numGuestIDs = numIDs
		}
		guestBits, _ := t.PropU32(node, "riscv,guest-index-bits")
		hartBits, ok := t.PropU32(node, "riscv,hart-index-bits")
		if !ok {
			hartBits = ceilLog2(nContexts)
		}
		groupBits, _ := t.PropU32(node, "riscv,group-index-bits")
		groupShift, ok := t.PropU32(node, "riscv,group-index-shift")
		if !ok {
			groupShift = imsicDefaultGroupShift
		}

		if _, err := s.Store.Add(cm.RiscVImsicInfo, cm.ImsicInfo{
			Version:         imsicVersion,
			NumIDs:          uint16(numIDs),
			NumGuestIDs:     uint16(numGuestIDs),
			GuestIndexBits:  uint8(guestBits),
			HartIndexBits:   uint8(hartBits),
			GroupIndexBits:  uint8(groupBits),
			GroupIndexShift: uint8(groupShift),
		}); err != nil {
			return err
		}

		// One interrupt file spans the guest pages too.
		fileSize := (uint64(1) << guestBits) * imsicMmioPageSize

		parent := parentOf(t, node)
		window := 0
		windowBase, windowSize, haveWindow := regEntry(t, parent, node, window)

		for ctx, pair := range contexts {
			if pair[1] != irqSExt {
				continue
			}
			hart := findHart(harts, pair[0])
			if hart == nil {
				return fmt.Errorf("imsic context %d references unknown hart phandle %d: %w", ctx, pair[0], cm.ErrAborted)
			}

			for haveWindow && windowSize < fileSize {
				window++
				windowBase, windowSize, haveWindow = regEntry(t, parent, node, window)
			}
			if !haveWindow {
				return fmt.Errorf("imsic reg windows exhausted at context %d: %w", ctx, cm.ErrAborted)
			}

			hart.info.ImsicBaseAddress = windowBase
			hart.info.ImsicSize = uint32(fileSize)
			windowBase += fileSize
			windowSize -= fileSize
		}

		s.Log.Info("parsed imsic", "num_ids", numIDs, "guest_index_bits", guestBits)
		return nil
	}
	return nil
}

// parseAplic handles wire-based APLIC domains. Only supervisor level
// domains are described; a domain qualifies by supervisor contexts or
// by delivering MSIs to the supervisor IMSIC. Interrupt sources get
// global numbers by accumulating each domain's source count in tree
// order.
func (s *Session) parseAplic(harts []*hartEntry) error {
	t := s.Tree

	var gsiBase uint32
	var id uint8
	for _, node := range compatNodes(t, "riscv,aplic") {
		contexts := extContexts(t, node)

		sMode := aplicDeliversToSImsic(t, node)
		for _, pair := range contexts {
			if pair[1] == irqSExt {
				sMode = true
			}
		}
		if !sMode {
			continue
		}

		numSources, _ := t.PropU32(node, "riscv,num-sources")
		parent := parentOf(t, node)
		base, size, ok := regEntry(t, parent, node, 0)
		if !ok {
			return fmt.Errorf("aplic %s has no reg: %w", t.NodeName(node), cm.ErrAborted)
		}

		var idc uint32
		for _, pair := range contexts {
			if pair[1] != irqSExt {
				continue
			}
			hart := findHart(harts, pair[0])
			if hart == nil {
				return fmt.Errorf("aplic context references unknown hart phandle %d: %w", pair[0], cm.ErrNotFound)
			}
			hart.info.ExtIntCID = uint32(id)<<24 | idc
			idc++
		}

		phandle, _ := t.PropU32(node, "phandle")
		if _, err := s.Store.Add(cm.RiscVAplicInfo, cm.AplicInfo{
			Version:      aplicVersion,
			AplicID:      id,
			NumIdcs:      uint16(idc),
			NumSources:   uint16(numSources),
			GsiBase:      gsiBase,
			AplicAddress: base,
			AplicSize:    uint32(size),
			Phandle:      phandle,
		}); err != nil {
			return err
		}

		s.Log.Info("parsed aplic", "id", id, "sources", numSources, "gsi_base", gsiBase)
		gsiBase += numSources
		id++
	}
	return nil
}

// parsePlic handles PLIC controllers. Each hart's supervisor context
// is found by its position among the controller's interrupt contexts,
// and source numbers accumulate across controllers in tree order.
func (s *Session) parsePlic(harts []*hartEntry) error {
	t := s.Tree

	var gsiBase uint32
	var id uint8
	for _, node := range compatNodes(t, "riscv,plic0", "sifive,plic-1.0.0", "thead,c900-plic") {
		numSources, _ := t.PropU32(node, "riscv,ndev")
		maxPriority, ok := t.PropU32(node, "riscv,max-priority")
		if !ok {
			maxPriority = 7
		}
		parent := parentOf(t, node)
		base, size, ok := regEntry(t, parent, node, 0)
		if !ok {
			return fmt.Errorf("plic %s has no reg: %w", t.NodeName(node), cm.ErrAborted)
		}

		for ctx, pair := range extContexts(t, node) {
			if pair[1] != irqSExt {
				continue
			}
			hart := findHart(harts, pair[0])
			if hart == nil {
				// M-mode only harts appear in contexts too.
				continue
			}
			hart.info.ExtIntCID = uint32(id)<<24 | uint32(ctx)
		}

		phandle, _ := t.PropU32(node, "phandle")
		if _, err := s.Store.Add(cm.RiscVPlicInfo, cm.PlicInfo{
			Version:     plicVersion,
			PlicID:      id,
			NumSources:  uint16(numSources),
			MaxPriority: uint16(maxPriority),
			PlicSize:    uint32(size),
			PlicAddress: base,
			GsiBase:     gsiBase,
			Phandle:     phandle,
		}); err != nil {
			return err
		}

		s.Log.Info("parsed plic", "id", id, "ndev", numSources, "gsi_base", gsiBase)
		gsiBase += numSources
		id++
	}
	return nil
}
