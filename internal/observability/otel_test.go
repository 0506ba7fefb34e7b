package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc , broken, =x, team=core ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "core" {
		t.Fatalf("unexpected headers: %v", got)
	}
	if parseHeaders("  ") != nil {
		t.Fatalf("blank input should yield nil")
	}
}

func TestClampRatio(t *testing.T) {
	if clampRatio(-1) != 0 || clampRatio(2) != 1 || clampRatio(0.25) != 0.25 {
		t.Fatalf("clampRatio out of range")
	}
}
