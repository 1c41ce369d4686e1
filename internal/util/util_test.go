package util

import "testing"

func TestMaskCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"GC-ABCDEFGHJKMN", "GC-...JKMN"},
		{"short", "short"},
		{"  GC-ABCDEFGHJKMN  ", "GC-...JKMN"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MaskCode(tc.in); got != tc.want {
			t.Fatalf("MaskCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskCodeNeverExposesFullBody(t *testing.T) {
	masked := MaskCode("GC-ABCDEFGHJKMN")
	if masked == "GC-ABCDEFGHJKMN" {
		t.Fatal("full code exposed")
	}
	if len(masked) != 10 {
		t.Fatalf("masked = %q, want prefix + ellipsis + last four", masked)
	}
}
