package hwparse

import (
	"bytes"

	"github.com/tinyrange/dyntables/internal/fdt"
)

// nodeIsCompatible reports whether any entry of a node's compatible
// string list matches one of names.
func nodeIsCompatible(t *fdt.Tree, node int, names ...string) bool {
	prop, ok := t.Property(node, "compatible")
	if !ok {
		return false
	}
	for _, entry := range bytes.Split(prop, []byte{0}) {
		for _, name := range names {
			if string(entry) == name {
				return true
			}
		}
	}
	return false
}

// compatNodes walks the whole tree and returns enabled nodes matching
// any of the compatible names, in tree order.
func compatNodes(t *fdt.Tree, names ...string) []int {
	var out []int

	node := t.Root()
	depth := 0
	for {
		next, ok := t.NextNode(node, &depth)
		if !ok {
			break
		}
		node = next
		if nodeIsCompatible(t, node, names...) && nodeEnabled(t, node) {
			out = append(out, node)
		}
	}
	return out
}

// nodeEnabled reports whether a node's status allows using it. A
// missing status property means enabled.
func nodeEnabled(t *fdt.Tree, node int) bool {
	status, ok := t.PropString(node, "status")
	if !ok {
		return true
	}
	return status == "okay" || status == "ok"
}

// regEntry reads one reg tuple using the parent's cell sizes.
func regEntry(t *fdt.Tree, parent, node int, index int) (addr uint64, size uint64, ok bool) {
	prop, found := t.Property(node, "reg")
	if !found {
		return 0, 0, false
	}

	addrCells := t.AddressCells(parent)
	sizeCells := t.SizeCells(parent)

	cells := fdt.Cells(prop)
	stride := addrCells + sizeCells
	start := index * stride
	if start+stride > len(cells) {
		return 0, 0, false
	}

	for i := 0; i < addrCells; i++ {
		addr = addr<<32 | uint64(cells[start+i])
	}
	for i := 0; i < sizeCells; i++ {
		size = size<<32 | uint64(cells[start+addrCells+i])
	}
	return addr, size, true
}

// interruptParent resolves the phandle of the node's interrupt parent.
// The property is inherited: absent on the node, the ancestors are
// consulted up to the root. Zero means no parent was named.
func interruptParent(t *fdt.Tree, node int) uint32 {
	for {
		if ph, ok := t.PropU32(node, "interrupt-parent"); ok {
			return ph
		}
		parent := parentOf(t, node)
		if parent == node {
			return 0
		}
		node = parent
	}
}

// parentOf finds the parent offset of node by walking from the root.
func parentOf(t *fdt.Tree, node int) int {
	parent := t.Root()
	cur, ok := t.FirstSubnode(parent)
	stack := []int{parent}

	for ok {
		if cur == node {
			return stack[len(stack)-1]
		}
		if child, has := t.FirstSubnode(cur); has {
			stack = append(stack, cur)
			cur = child
			continue
		}
		for {
			if next, has := t.NextSubnode(cur); has {
				cur = next
				break
			}
			if len(stack) == 1 {
				return parent
			}
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
	}
	return parent
}
