package localid_test

import (
	"testing"

	"satchel/internal/localid"
)

func TestParseClassifiesAndRoundTrips(t *testing.T) {
	cases := []struct {
		raw   string
		kind  localid.Kind
		value string
	}{
		{"abc123", localid.Remote, "abc123"},
		{"local:abc123", localid.Local, "abc123"},
		{"localview:MusicView", localid.LocalView, "MusicView"},
		{"localview", localid.TopLevel, "localview"},
		{"", localid.Remote, ""},
	}
	for _, tc := range cases {
		id := localid.Parse(tc.raw)
		if id.Kind() != tc.kind {
			t.Errorf("Parse(%q) kind = %d, want %d", tc.raw, id.Kind(), tc.kind)
		}
		if id.Value() != tc.value {
			t.Errorf("Parse(%q) value = %q, want %q", tc.raw, id.Value(), tc.value)
		}
		if id.String() != tc.raw {
			t.Errorf("Parse(%q).String() = %q, want round trip", tc.raw, id.String())
		}
	}
}

func TestIsLocal(t *testing.T) {
	if localid.Parse("abc").IsLocal() {
		t.Error("remote id reported local")
	}
	for _, raw := range []string{"local:abc", "localview:MoviesView", "localview"} {
		if !localid.Parse(raw).IsLocal() {
			t.Errorf("Parse(%q).IsLocal() = false", raw)
		}
	}
}

func TestToLocalIdempotent(t *testing.T) {
	once := localid.ToLocal("abc123")
	if once != "local:abc123" {
		t.Fatalf("ToLocal = %q", once)
	}
	if twice := localid.ToLocal(once); twice != once {
		t.Fatalf("ToLocal not idempotent: %q", twice)
	}
	if localid.ToLocal("") != "" {
		t.Fatal("ToLocal should keep empty ids empty")
	}
}

func TestToLocalViewIdempotent(t *testing.T) {
	once := localid.ToLocalView("MusicView")
	if once != "localview:MusicView" {
		t.Fatalf("ToLocalView = %q", once)
	}
	if twice := localid.ToLocalView(once); twice != once {
		t.Fatalf("ToLocalView not idempotent: %q", twice)
	}
	if localid.ToLocalView("") != "" {
		t.Fatal("ToLocalView should keep empty names empty")
	}
}

func TestStrip(t *testing.T) {
	cases := map[string]string{
		"local:abc":            "abc",
		"localview:MoviesView": "MoviesView",
		"abc":                  "abc",
		"":                     "",
	}
	for raw, want := range cases {
		if got := localid.Strip(raw); got != want {
			t.Errorf("Strip(%q) = %q, want %q", raw, got, want)
		}
	}
}
