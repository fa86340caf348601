package tables

import (
	"errors"
	"testing"

	"github.com/tinyrange/dyntables/internal/cm"
)

func TestGsiRemapMatchesControllerPhandle(t *testing.T) {
	store := cm.NewStore()
	if _, err := store.Add(cm.RiscVPlicInfo,
		cm.PlicInfo{NumSources: 32, GsiBase: 0, Phandle: 3},
		cm.PlicInfo{NumSources: 16, GsiBase: 32, Phandle: 4},
	); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ctx := testContext(store)

	// The same source number maps differently per controller.
	if gsi, err := gsiIrqID(ctx, 3, 5); err != nil || gsi != 5 {
		t.Fatalf("first plic irq 5 = %d, %v", gsi, err)
	}
	if gsi, err := gsiIrqID(ctx, 4, 5); err != nil || gsi != 37 {
		t.Fatalf("second plic irq 5 = %d, %v, want 37", gsi, err)
	}

	if _, err := gsiIrqID(ctx, 9, 5); !errors.Is(err, cm.ErrNotFound) {
		t.Fatalf("unknown phandle err = %v, want not found", err)
	}
}

func TestGsiRemapPrefersAplicDomains(t *testing.T) {
	store := cm.NewStore()
	if _, err := store.Add(cm.RiscVAplicInfo, cm.AplicInfo{
		NumSources: 64, GsiBase: 48, Phandle: 5,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(cm.RiscVPlicInfo, cm.PlicInfo{
		NumSources: 32, GsiBase: 0, Phandle: 3,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ctx := testContext(store)

	if gsi, err := gsiIrqID(ctx, 5, 2); err != nil || gsi != 50 {
		t.Fatalf("aplic irq 2 = %d, %v, want 50", gsi, err)
	}
	if gsi, err := gsiIrqID(ctx, 3, 2); err != nil || gsi != 2 {
		t.Fatalf("plic irq 2 = %d, %v, want 2", gsi, err)
	}
}
