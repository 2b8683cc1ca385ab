package env

import "testing"

func TestGetTrimsAndFallsBack(t *testing.T) {
	t.Setenv("ORDERHUB_TEST_VALUE", "  value ")
	if got := Get("ORDERHUB_TEST_VALUE", "x"); got != "value" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("ORDERHUB_TEST_VALUE", "   ")
	if got := Get("ORDERHUB_TEST_VALUE", "x"); got != "x" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
}

func TestFirst(t *testing.T) {
	t.Setenv("ORDERHUB_TEST_A", "")
	t.Setenv("ORDERHUB_TEST_B", "b")
	if got := First("ORDERHUB_TEST_A", "ORDERHUB_TEST_B"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := First(); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
