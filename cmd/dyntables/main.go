// Command dyntables reads a flattened device tree, discovers the
// platform hardware and generates the ACPI table set a RISC-V guest
// boots from.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tinyrange/dyntables/internal/cm"
	"github.com/tinyrange/dyntables/internal/fdt"
	"github.com/tinyrange/dyntables/internal/hwparse"
	"github.com/tinyrange/dyntables/internal/tables"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dyntables: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fdtPath := flag.String("fdt", "", "Device tree blob (or .yaml node tree) to parse")
	configPath := flag.String("config", "", "Platform config (YAML)")
	outDir := flag.String("out", ".", "Output directory for tables.bin and rsdp.bin")
	dump := flag.Bool("dump", false, "Print the discovered hardware objects and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -fdt <blob> [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate ACPI tables from a RISC-V device tree.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	log := slog.Default()

	if *fdtPath == "" {
		flag.Usage()
		return fmt.Errorf("device tree blob required")
	}

	blob, err := readDeviceTree(*fdtPath)
	if err != nil {
		return err
	}
	tree, err := fdt.Parse(blob)
	if err != nil {
		return fmt.Errorf("parse device tree: %w", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	store := cm.NewStore()
	session := hwparse.NewSession(tree, store, log)
	if err := session.Run(hwparse.Parsers()); err != nil {
		return err
	}

	if *dump {
		printer := &cm.Printer{
			Out:   os.Stdout,
			Color: term.IsTerminal(int(os.Stdout.Fd())),
		}
		return printer.Print(store)
	}

	if err := cfg.apply(store); err != nil {
		return err
	}

	result, err := tables.Install(&tables.Context{
		Store: store,
		OEM:   cfg.oem(),
		Log:   log,
	}, tables.InstallConfig{
		OEM:        cfg.oem(),
		TablesBase: cfg.TablesBase,
	}, nil)
	if err != nil {
		return err
	}

	tablesPath := filepath.Join(*outDir, "tables.bin")
	if err := os.WriteFile(tablesPath, result.Tables, 0644); err != nil {
		return fmt.Errorf("write tables: %w", err)
	}
	rsdpPath := filepath.Join(*outDir, "rsdp.bin")
	if err := os.WriteFile(rsdpPath, result.RSDP, 0644); err != nil {
		return fmt.Errorf("write rsdp: %w", err)
	}

	log.Info("wrote table set", "tables", tablesPath, "rsdp", rsdpPath,
		"size", len(result.Tables), "base", fmt.Sprintf("%#x", cfg.TablesBase))
	return nil
}

// readDeviceTree loads either a flattened blob or, for .yaml/.yml
// files, a node tree description that gets compiled through the
// builder.
func readDeviceTree(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device tree: %w", err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var root fdt.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decode device tree description: %w", err)
		}
		blob, err := fdt.Build(root)
		if err != nil {
			return nil, fmt.Errorf("build device tree: %w", err)
		}
		return blob, nil
	default:
		return data, nil
	}
}
