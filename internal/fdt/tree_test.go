package fdt

import (
	"encoding/binary"
	"testing"
)

func buildTestTree(t *testing.T) *Tree {
	t.Helper()

	b := NewBuilder()
	b.BeginNode("")
	b.AddPropertyU32("#address-cells", 2)
	b.AddPropertyU32("#size-cells", 2)
	b.AddPropertyString("model", "test,virt")

	b.BeginNode("cpus")
	b.AddPropertyU32("#address-cells", 1)
	b.AddPropertyU32("#size-cells", 0)
	b.BeginNode("cpu@0")
	b.AddPropertyString("device_type", "cpu")
	b.AddPropertyU32("reg", 0)
	b.BeginNode("interrupt-controller")
	b.AddPropertyU32("phandle", 7)
	b.AddPropertyString("compatible", "riscv,cpu-intc")
	b.EndNode()
	b.EndNode()
	b.EndNode()

	b.BeginNode("soc")
	b.AddPropertyU32("#address-cells", 2)
	b.AddPropertyU32("#size-cells", 2)
	b.BeginNode("serial@10000000")
	b.AddPropertyStringList("compatible", []string{"vendor,uart", "ns16550a"})
	b.AddPropertyU32Array("reg", []uint32{0, 0x10000000, 0, 0x100})
	b.EndNode()
	b.EndNode()

	b.EndNode()

	tree, err := Parse(b.Build())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tree
}

func TestParseRejectsBadBlob(t *testing.T) {
	if _, err := Parse([]byte{1, 2, 3}); err == nil {
		t.Fatal("short blob accepted")
	}

	b := NewBuilder()
	b.BeginNode("")
	b.EndNode()
	blob := b.Build()
	blob[0] = 0
	if _, err := Parse(blob); err == nil {
		t.Fatal("bad magic accepted")
	}
}

func TestParseRejectsOverlongProperty(t *testing.T) {
	b := NewBuilder()
	b.BeginNode("")
	b.AddPropertyU32("reg", 1)
	b.EndNode()
	blob := b.Build()

	// The root's first property sits right after the empty node name;
	// its length field follows the FDT_PROP token.
	propOff := fdtHeaderSize + 16 + 8
	binary.BigEndian.PutUint32(blob[propOff+4:propOff+8], 0xffff)
	if _, err := Parse(blob); err == nil {
		t.Fatal("overlong property accepted")
	}
}

func TestPathOffset(t *testing.T) {
	tree := buildTestTree(t)

	if _, ok := tree.PathOffset("/cpus"); !ok {
		t.Fatal("missing /cpus")
	}
	if _, ok := tree.PathOffset("/nope"); ok {
		t.Fatal("found /nope")
	}

	// Unit addresses can be omitted in the path.
	node, ok := tree.PathOffset("/soc/serial")
	if !ok {
		t.Fatal("missing /soc/serial")
	}
	if name := tree.NodeName(node); name != "serial@10000000" {
		t.Fatalf("node name = %q", name)
	}
}

func TestProperties(t *testing.T) {
	tree := buildTestTree(t)

	if model, ok := tree.PropString(tree.Root(), "model"); !ok || model != "test,virt" {
		t.Fatalf("model = %q, %v", model, ok)
	}

	cpus, _ := tree.PathOffset("/cpus")
	if v, ok := tree.PropU32(cpus, "#address-cells"); !ok || v != 1 {
		t.Fatalf("#address-cells = %d, %v", v, ok)
	}
	if tree.AddressCells(cpus) != 1 {
		t.Fatalf("AddressCells = %d", tree.AddressCells(cpus))
	}
	if tree.SizeCells(cpus) != 0 {
		t.Fatalf("SizeCells = %d", tree.SizeCells(cpus))
	}

	serial, _ := tree.PathOffset("/soc/serial")
	reg, ok := tree.Property(serial, "reg")
	if !ok {
		t.Fatal("missing reg")
	}
	cells := Cells(reg)
	if len(cells) != 4 || cells[1] != 0x10000000 {
		t.Fatalf("reg cells = %v", cells)
	}
}

func TestSubnodeIteration(t *testing.T) {
	tree := buildTestTree(t)

	var names []string
	node, ok := tree.FirstSubnode(tree.Root())
	for ok {
		names = append(names, tree.NodeName(node))
		node, ok = tree.NextSubnode(node)
	}

	if len(names) != 2 || names[0] != "cpus" || names[1] != "soc" {
		t.Fatalf("subnodes = %v", names)
	}
}

func TestNodeByPhandle(t *testing.T) {
	tree := buildTestTree(t)

	node, ok := tree.NodeByPhandle(7)
	if !ok {
		t.Fatal("phandle 7 not found")
	}
	if name := tree.NodeName(node); name != "interrupt-controller" {
		t.Fatalf("node name = %q", name)
	}

	if _, ok := tree.NodeByPhandle(99); ok {
		t.Fatal("phandle 99 found")
	}
}
