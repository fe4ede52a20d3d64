package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/onepostnft/marketd/pkg/config"
)

func TestDisabledLedgerIsSafe(t *testing.T) {
	store, err := New(&config.RedisConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if store != nil {
		t.Fatal("expected a nil store when redis is disabled")
	}

	ctx := context.Background()

	if err := store.Append(ctx, SoldRecord{TokenID: "1"}); !errors.Is(err, ErrLedgerDisabled) {
		t.Errorf("expected ErrLedgerDisabled, got %v", err)
	}
	if records := store.List(ctx); len(records) != 0 {
		t.Errorf("disabled ledger must read as empty, got %d records", len(records))
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on a nil store must be a no-op, got %v", err)
	}
}
