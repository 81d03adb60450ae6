package slug

import (
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{in: "Slot 42 / Morning", want: "slot-42-morning"},
		{in: "  ABC--def  ", want: "abc-def"},
		{in: "SLOT#7_b", want: "slot-7-b"},
		{in: "Ünïcode-9", want: "n-code-9"},
		{in: "", want: "slot"},
		{in: "***", want: "slot"},
	}
	for _, tc := range cases {
		if got := Make(tc.in); got != tc.want {
			t.Fatalf("Make(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMakeBoundsLength(t *testing.T) {
	t.Parallel()
	got := Make(strings.Repeat("ab-", 40))
	if len(got) > MaxLen || strings.HasSuffix(got, "-") {
		t.Fatalf("unexpected bounded slug %q (%d)", got, len(got))
	}
}
