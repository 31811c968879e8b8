package language_test

import (
	"testing"

	"satchel/internal/language"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"en", "eng"},
		{"eng", "eng"},
		{"English", "eng"},
		{"fre", "fra"},
		{"ger", "deu"},
		{"", ""},
		{"xx", "xx"},
		{" PT ", "por"},
	}
	for _, tc := range tests {
		if got := language.Normalize(tc.input); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"eng", "English"},
		{"fr", "French"},
		{"", "Unknown"},
		{"xx", "XX"},
	}
	for _, tc := range tests {
		if got := language.DisplayName(tc.input); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
