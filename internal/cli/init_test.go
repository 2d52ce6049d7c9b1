package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestInitJournal(t *testing.T) {
	logger := SetupLogger("error")

	if repo := InitJournal(logger, ""); repo != nil {
		t.Fatal("empty path should disable the journal")
	}

	repo := InitJournal(logger, filepath.Join(t.TempDir(), "journal.db"))
	if repo == nil {
		t.Fatal("expected a journal")
	}
	defer repo.Close()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSignalContext_StopCancels(t *testing.T) {
	ctx, stop := SignalContext(context.Background())
	stop()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("stop should cancel the context")
	}
}

func TestClose(t *testing.T) {
	logger := SetupLogger("error")
	called := false
	Close(logger, "thing", func() error { called = true; return errors.New("boom") })
	if !called {
		t.Fatal("cleanup not called")
	}
	Close(logger, "nothing", nil)
}
