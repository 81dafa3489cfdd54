package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("MARAIS_TEST_FORMAT", " console ")
	if got := Get("MARAIS_TEST_FORMAT", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("MARAIS_TEST_FORMAT", "   ")
	if got := Get("MARAIS_TEST_FORMAT", "json"); got != "json" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
	if got := Get("MARAIS_TEST_UNSET_KEY", "json"); got != "json" {
		t.Fatalf("expected fallback for unset key, got %q", got)
	}
}
