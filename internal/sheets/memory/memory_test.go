package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	ports "shelterstats/internal/sheets"
)

func TestStoreSetAndRead(t *testing.T) {
	values := [][]string{{"Date", "Species"}, {"2024-01-05", "Dog"}}
	s := New(values)
	values[1][1] = "Cat" // caller mutation must not leak into the store

	table, err := s.ReadTable(context.Background())
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0]["Species"] != "Dog" {
		t.Fatalf("unexpected table: %+v", table)
	}

	s.Set([][]string{{"Date", "Species"}})
	if _, err := s.ReadTable(context.Background()); !errors.Is(err, ports.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if s.Reads() != 2 {
		t.Fatalf("Reads() = %d, want 2", s.Reads())
	}
}

func TestStoreFail(t *testing.T) {
	boom := errors.New("boom")
	s := New([][]string{{"Date", "Species"}, {"2024-01-05", "Dog"}})
	s.Fail(boom)
	if _, err := s.ReadTable(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	s.Set([][]string{{"Date", "Species"}, {"2024-01-05", "Dog"}})
	if _, err := s.ReadTable(context.Background()); err != nil {
		t.Fatalf("Set should clear the error, got %v", err)
	}
}

func TestNewFromFileSeedsAndDefaults(t *testing.T) {
	dir := t.TempDir()

	s := NewFromFile(filepath.Join(dir, "missing.txt"))
	values, _ := s.Values(context.Background())
	if len(values) != len(sample)+1 {
		t.Fatalf("expected built-in sample when file missing, got %d rows", len(values))
	}

	path := filepath.Join(dir, "seed.txt")
	if err := os.WriteFile(path, []byte("# seed\n2024-01-05, Dog\n\n2024-02-01,Cat\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFile(path)
	values, _ = s.Values(context.Background())
	if len(values) != 3 || values[1][1] != "Dog" || values[2][0] != "2024-02-01" {
		t.Fatalf("unexpected seeded values: %v", values)
	}
}
