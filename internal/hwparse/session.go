// Package hwparse walks a flattened device tree and fills the
// configuration manager store with the records the table generators
// consume.
package hwparse

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinyrange/dyntables/internal/cm"
	"github.com/tinyrange/dyntables/internal/fdt"
)

// Session carries one parse run over a device tree. Latches for
// machine-wide singletons live here, so repeated runs over different
// trees do not bleed state into each other.
type Session struct {
	Tree  *fdt.Tree
	Store *cm.Store
	Log   *slog.Logger

	// Next ACPI processor UID, handed out in cpu node order.
	nextUID uint32

	isaDone   bool
	cmoDone   bool
	timerDone bool
}

// NewSession prepares a parse run.
func NewSession(tree *fdt.Tree, store *cm.Store, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{Tree: tree, Store: store, Log: log}
}

// Parser is one unit of the dispatcher chain.
type Parser struct {
	Name string
	Run  func(s *Session) error
}

// Parsers is the default chain in dependency order. The interrupt
// controller walk runs inside the RINTC parser because controller
// records link back to the per-hart entries.
func Parsers() []Parser {
	return []Parser{
		{Name: "rintc", Run: parseRintc},
		{Name: "serial", Run: parseSerialPorts},
		{Name: "pcie", Run: parsePciConfigSpaces},
	}
}

// Run executes the chain. A parser that finds nothing to describe is
// skipped with a warning; any other failure aborts the run.
func (s *Session) Run(parsers []Parser) error {
	for _, p := range parsers {
		err := p.Run(s)
		if err == nil {
			continue
		}
		if errors.Is(err, cm.ErrNotFound) {
			s.Log.Warn("parser found no hardware", "parser", p.Name, "err", err)
			continue
		}
		return fmt.Errorf("hwparse: %s: %w", p.Name, err)
	}
	return nil
}
