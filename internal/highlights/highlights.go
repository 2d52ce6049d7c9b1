// Package highlights loads the curated metric cards shown above the charts.
package highlights

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Trend is the direction a card's comparison points to.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

func (t Trend) valid() bool {
	switch t {
	case TrendUp, TrendDown, TrendFlat:
		return true
	}
	return false
}

// Card is one curated data point.
type Card struct {
	Title          string   `yaml:"title" json:"title"`
	Value          string   `yaml:"value" json:"value"`
	Subtitle       []string `yaml:"subtitle" json:"subtitle,omitempty"`
	Comparison     string   `yaml:"comparison" json:"comparison,omitempty"`
	ComparisonText string   `yaml:"comparison_text" json:"comparisonText,omitempty"`
	Trend          Trend    `yaml:"trend" json:"trend"`
}

// Set is the full highlights document.
type Set struct {
	AsOf  string `yaml:"as_of" json:"asOf,omitempty"`
	Cards []Card `yaml:"cards" json:"cards"`
}

// UnmarshalYAML accepts either a single string or a list for Subtitle.
func (c *Card) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Title          string    `yaml:"title"`
		Value          string    `yaml:"value"`
		Subtitle       yaml.Node `yaml:"subtitle"`
		Comparison     string    `yaml:"comparison"`
		ComparisonText string    `yaml:"comparison_text"`
		Trend          Trend     `yaml:"trend"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = Card{
		Title:          raw.Title,
		Value:          raw.Value,
		Comparison:     raw.Comparison,
		ComparisonText: raw.ComparisonText,
		Trend:          raw.Trend,
	}
	switch raw.Subtitle.Kind {
	case 0:
	case yaml.ScalarNode:
		if raw.Subtitle.Tag == "!!null" {
			break
		}
		if s := strings.TrimSpace(raw.Subtitle.Value); s != "" {
			c.Subtitle = []string{s}
		}
	case yaml.SequenceNode:
		if err := raw.Subtitle.Decode(&c.Subtitle); err != nil {
			return fmt.Errorf("subtitle: %w", err)
		}
	default:
		return fmt.Errorf("line %d: subtitle must be a string or a list", raw.Subtitle.Line)
	}
	return nil
}

// Parse decodes and validates a highlights document.
func Parse(data []byte) (Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("decode highlights: %w", err)
	}
	for i := range set.Cards {
		if set.Cards[i].Trend == "" {
			set.Cards[i].Trend = TrendFlat
		}
	}
	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	if set.Cards == nil {
		set.Cards = []Card{}
	}
	return set, nil
}

// Validate reports every invalid card at once.
func (s Set) Validate() error {
	var errs []string
	for i, c := range s.Cards {
		if strings.TrimSpace(c.Title) == "" {
			errs = append(errs, fmt.Sprintf("card %d: title is required", i+1))
		}
		if strings.TrimSpace(c.Value) == "" {
			errs = append(errs, fmt.Sprintf("card %d: value is required", i+1))
		}
		if !c.Trend.valid() {
			errs = append(errs, fmt.Sprintf("card %d: trend %q must be one of up, down, flat", i+1, c.Trend))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid highlights:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Load reads the highlights file at path. A missing file yields an empty set.
func Load(ctx context.Context, path string) (Set, error) {
	if strings.TrimSpace(path) == "" {
		return Set{Cards: []Card{}}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.WarnContext(ctx, "Highlights file not found, serving no highlights", "path", path)
		return Set{Cards: []Card{}}, nil
	}
	if err != nil {
		return Set{}, fmt.Errorf("read highlights: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return Set{}, fmt.Errorf("%s: %w", path, err)
	}
	slog.InfoContext(ctx, "Highlights loaded", "path", path, "cards", len(set.Cards), "as_of", set.AsOf)
	return set, nil
}
