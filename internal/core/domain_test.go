package core

import (
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{"Dog", Dog},
		{"  dog ", Dog},
		{"DOGS", Dog},
		{"Cat", Cat},
		{"cats", Cat},
		{"Rabbit", Other},
		{"unknown", Other},
	}
	for _, tc := range cases {
		if got := ParseCategory(tc.in); got != tc.want {
			t.Errorf("ParseCategory(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCategoryKnown(t *testing.T) {
	if !Dog.Known() || !Cat.Known() {
		t.Fatal("dog and cat must be known categories")
	}
	if Other.Known() {
		t.Fatal("other must not count as known")
	}
}

func TestDateOnOrBefore(t *testing.T) {
	d := NewDate(2024, 4, 15)
	cases := []struct {
		month, day int
		want       bool
	}{
		{4, 15, true},
		{4, 14, false},
		{4, 16, true},
		{3, 31, false},
		{5, 1, true},
	}
	for _, tc := range cases {
		if got := d.OnOrBefore(tc.month, tc.day); got != tc.want {
			t.Errorf("%s.OnOrBefore(%d, %d) = %v, want %v", d, tc.month, tc.day, got, tc.want)
		}
	}
}
