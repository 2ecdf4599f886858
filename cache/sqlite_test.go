package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStorePutAndLookup(t *testing.T) {
	store, err := NewSQLiteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	entry := Entry{
		Fingerprint:     "abc",
		ToolPath:        "/usr/bin/samtools",
		CommandPath:     []string{"samtools", "view"},
		HelpDigest:      "00ff",
		ContractVersion: "1",
		ModelID:         "ollama/llama3.1",
		Payload:         json.RawMessage(`{"name":"view"}`),
	}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := store.Lookup(ctx, "abc")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok {
		t.Fatal("expected entry to be found")
	}
	if got.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if len(got.CommandPath) != 2 || got.CommandPath[1] != "view" {
		t.Errorf("unexpected command path %v", got.CommandPath)
	}
	if string(got.Payload) != `{"name":"view"}` {
		t.Errorf("unexpected payload %s", got.Payload)
	}
}

func TestSQLiteStoreLookupMissing(t *testing.T) {
	store, err := NewSQLiteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	_, ok, err := store.Lookup(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestSQLiteStoreNewestWins(t *testing.T) {
	store, err := NewSQLiteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	for i, payload := range []string{`{"name":"old"}`, `{"name":"new"}`} {
		err := store.Put(ctx, Entry{
			Fingerprint: "fp",
			ToolPath:    "/bin/tool",
			CommandPath: []string{"tool"},
			Payload:     json.RawMessage(payload),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, _, err := store.Lookup(ctx, "fp")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if string(got.Payload) != `{"name":"new"}` {
		t.Errorf("expected newest payload, got %s", got.Payload)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected history to be preserved, got %d entries", len(all))
	}
}

func TestSQLiteStoreListByTool(t *testing.T) {
	store, err := NewSQLiteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, tool := range []string{"/usr/bin/samtools", "/usr/local/bin/bcftools", "/usr/bin/samtools"} {
		if err := store.Put(ctx, Entry{Fingerprint: tool, ToolPath: tool, CommandPath: []string{"x"}, Payload: json.RawMessage(`{}`)}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	byName, err := store.List(ctx, "samtools")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byName) != 2 {
		t.Errorf("expected 2 samtools entries by name, got %d", len(byName))
	}

	byPath, err := store.List(ctx, "/usr/local/bin/bcftools")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byPath) != 1 {
		t.Errorf("expected 1 bcftools entry by path, got %d", len(byPath))
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	ctx := context.Background()

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := store.Put(ctx, Entry{Fingerprint: "persist", ToolPath: "/bin/t", CommandPath: []string{"t"}, Payload: json.RawMessage(`{"name":"t"}`)}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	store.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	_, ok, err := reopened.Lookup(ctx, "persist")
	if err != nil || !ok {
		t.Fatalf("expected persisted entry, ok=%v err=%v", ok, err)
	}
}
