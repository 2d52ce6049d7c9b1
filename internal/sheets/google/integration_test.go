//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"shelterstats/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ReadAdoptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	id := os.Getenv("GOOGLE_SHEET_ID")
	if id == "" {
		t.Skip("GOOGLE_SHEET_ID not set, skipping integration test")
	}
	creds := Credentials{
		JSON:       os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY"),
		File:       os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Email:      os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		PrivateKey: os.Getenv("GOOGLE_PRIVATE_KEY"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Options{SpreadsheetID: id, Range: os.Getenv("GOOGLE_SHEETS_RANGE"), Credentials: creds})
	if err != nil {
		t.Skipf("Cannot create client: %v", err)
	}

	table, err := client.ReadTable(ctx)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	t.Logf("Read %d rows with headers %v", len(table.Rows), table.Headers)

	res := core.ParseRecords(table, core.DefaultFieldMap())
	t.Logf("Parsed %d records, dropped %d", len(res.Records), res.Dropped)
	if len(res.Records) == 0 {
		t.Error("expected at least one parseable adoption record")
	}
}
