package memory

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	"shelterstats/internal/core"
	ports "shelterstats/internal/sheets"
)

// Store is an in-memory adoption table for local development and tests.
type Store struct {
	mu     sync.Mutex
	values [][]string
	err    error
	reads  int
}

var (
	_ ports.TableReader  = (*Store)(nil)
	_ ports.MatrixReader = (*Store)(nil)
	_ ports.Named        = (*Store)(nil)
)

// New returns a store holding values, header row first.
func New(values [][]string) *Store {
	s := &Store{}
	s.Set(values)
	return s
}

// NewFromFile seeds the store from a file of "date,category" lines. Blank
// lines and lines starting with # are skipped. When the file is missing or
// empty a small built-in sample is used.
func NewFromFile(path string) *Store {
	values := [][]string{{"Date", "Species"}}
	for _, line := range readLines(path) {
		date, cat, _ := strings.Cut(line, ",")
		values = append(values, []string{strings.TrimSpace(date), strings.TrimSpace(cat)})
	}
	if len(values) == 1 {
		values = append(values, sample...)
	}
	return New(values)
}

var sample = [][]string{
	{"2024-01-05", "Dog"},
	{"2024-01-20", "Cat"},
	{"2024-03-02", "Dog"},
	{"2024-07-14", "Cat"},
	{"2025-01-10", "Dog"},
	{"2025-02-11", "Cat"},
	{"2025-04-15", "Dog"},
}

// Set replaces the table and clears any injected error.
func (s *Store) Set(values [][]string) {
	cp := make([][]string, len(values))
	for i, row := range values {
		cp[i] = append([]string(nil), row...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = cp
	s.err = nil
}

// Fail makes every following read return err until Set is called.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Reads reports how many times the store was read.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Values returns a copy of the stored matrix.
func (s *Store) Values(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]string, len(s.values))
	for i, row := range s.values {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// ReadTable implements ports.TableReader.
func (s *Store) ReadTable(ctx context.Context) (core.Table, error) {
	values, err := s.Values(ctx)
	if err != nil {
		return core.Table{}, err
	}
	return ports.BuildTable(values)
}

func (s *Store) Source() string { return "memory" }

func readLines(path string) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
