package highlights

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	doc := `
as_of: July 2025
cards:
  - title: YTD Adoptions
    value: "1,823"
    subtitle: highest in the past 3 years
    comparison: "+12.4%"
    comparison_text: vs 2024 YTD
    trend: up
  - title: Animals in Foster Care
    value: "192"
    subtitle:
      - 27 dogs in boarding
      - 10 cats at PetSmart
  - title: Animals in Care SC
    value: "72"
    trend: down
`
	set, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if set.AsOf != "July 2025" || len(set.Cards) != 3 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if got := set.Cards[0]; got.ComparisonText != "vs 2024 YTD" || got.Trend != TrendUp || len(got.Subtitle) != 1 {
		t.Errorf("unexpected first card: %+v", got)
	}
	if got := set.Cards[1]; len(got.Subtitle) != 2 || got.Subtitle[1] != "10 cats at PetSmart" {
		t.Errorf("expected list subtitle, got %+v", got.Subtitle)
	}
	if set.Cards[1].Trend != TrendFlat {
		t.Errorf("missing trend should default to flat, got %q", set.Cards[1].Trend)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"bad trend", "cards:\n  - title: A\n    value: \"1\"\n    trend: sideways\n", "trend \"sideways\""},
		{"missing title", "cards:\n  - value: \"1\"\n", "card 1: title is required"},
		{"missing value", "cards:\n  - title: A\n", "card 1: value is required"},
		{"subtitle map", "cards:\n  - title: A\n    value: \"1\"\n    subtitle: {a: b}\n", "subtitle must be a string or a list"},
		{"not yaml", "cards: [", "decode highlights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_CollectsAllProblems(t *testing.T) {
	_, err := Parse([]byte("cards:\n  - title: A\n  - value: \"2\"\n    trend: nope\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"card 1: value", "card 2: title", "card 2: trend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		set, err := Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("missing file should not fail: %v", err)
		}
		if set.Cards == nil || len(set.Cards) != 0 {
			t.Fatalf("expected empty non-nil cards, got %#v", set.Cards)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		set, err := Load(ctx, "")
		if err != nil || len(set.Cards) != 0 {
			t.Fatalf("unexpected result: %+v, %v", set, err)
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "h.yaml")
		if err := os.WriteFile(path, []byte("cards:\n  - title: A\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(ctx, path); err == nil || !strings.Contains(err.Error(), path) {
			t.Fatalf("expected error naming the file, got %v", err)
		}
	})

	t.Run("bundled sample", func(t *testing.T) {
		set, err := Load(ctx, filepath.Join("..", "..", "data", "highlights.yaml"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(set.Cards) != 5 {
			t.Fatalf("expected 5 cards, got %d", len(set.Cards))
		}
	})
}
