package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	ports "shelterstats/internal/sheets"
)

func TestNew_MissingURL(t *testing.T) {
	if _, err := New("  ", nil, 0); !errors.Is(err, ErrMissingURL) {
		t.Fatalf("expected ErrMissingURL, got %v", err)
	}
}

func TestClient_ReadTable(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantRows int
		check    func(t *testing.T, err error)
	}{
		{
			name:     "ok",
			status:   http.StatusOK,
			body:     `{"data":[{"Date":"2024-01-05","Species":"Dog"},{"Date":"2024-01-20","Species":"Cat"}],"headers":["Date","Species"]}`,
			wantRows: 2,
		},
		{
			name:   "no data",
			status: http.StatusOK,
			body:   `{"data":[],"headers":["Date","Species"]}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ports.ErrNoData) {
					t.Fatalf("expected ErrNoData, got %v", err)
				}
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":"No data found"}`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.Code != http.StatusNotFound {
					t.Fatalf("expected StatusError 404, got %v", err)
				}
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":"Failed to fetch data from Google Sheets"}`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
					t.Fatalf("expected StatusError 500, got %v", err)
				}
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatal("expected decode error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(srv.URL, srv.Client(), 0)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			table, err := c.ReadTable(context.Background())
			if tt.check != nil {
				tt.check(t, err)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(table.Rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(table.Rows), tt.wantRows)
			}
			if table.Rows[0]["Species"] != "Dog" {
				t.Errorf("unexpected first row: %v", table.Rows[0])
			}
		})
	}
}

func TestClient_Values(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"Date":"2024-01-05","Species":"Dog"},{"Species":"Cat"}],"headers":["Date","Species"]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	values, err := c.Values(context.Background())
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("rows = %d, want 3", len(values))
	}
	if values[0][0] != "Date" || values[0][1] != "Species" {
		t.Errorf("header row = %v", values[0])
	}
	if values[2][0] != "" || values[2][1] != "Cat" {
		t.Errorf("missing cells should be empty, got %v", values[2])
	}
}
