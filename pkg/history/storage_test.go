package history

import (
	"path/filepath"
	"testing"
	"time"
)

func testEntry(step string, at time.Time) Entry {
	return Entry{
		Timestamp:     at,
		PayToken:      "WETH",
		PayAmount:     "1",
		ReceiveToken:  "USDC",
		ReceiveAmount: "3000",
		TradeType:     "EXACT_INPUT",
		Step:          step,
		TxHash:        "0xabc",
	}
}

func TestStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	store, err := NewStorage(path)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Append(testEntry("SUCCESS", base)); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(testEntry("FAILED", base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	// A fresh instance reads what was persisted.
	reopened, err := NewStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Count() != 2 {
		t.Fatalf("count = %d", reopened.Count())
	}

	entries := reopened.List()
	if entries[0].Step != "FAILED" {
		t.Fatalf("newest first violated: %s", entries[0].Step)
	}

	failed := reopened.ListByStep("FAILED")
	if len(failed) != 1 || failed[0].Step != "FAILED" {
		t.Fatalf("filtered %+v", failed)
	}
}

func TestStorageMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")

	store, err := NewStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if store.Count() != 0 {
		t.Fatalf("count = %d", store.Count())
	}
}

func TestAppendStampsTimestamp(t *testing.T) {
	store, err := NewStorage(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}

	entry := testEntry("CANCELLED", time.Time{})
	if err := store.Append(entry); err != nil {
		t.Fatal(err)
	}
	if store.List()[0].Timestamp.IsZero() {
		t.Fatal("timestamp not stamped")
	}
}
