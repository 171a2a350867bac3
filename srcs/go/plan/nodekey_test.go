package plan

import (
	"math"
	"testing"
)

func Test_ExtractNodeKey(t *testing.T) {
	tests := []struct {
		label string
		want  NodeKey
	}{
		{"node042-ib0", 42},
		{"gpu7", 7},
		{"nodeA01", 1},
		{"node001", 1},
		{"node002", 2},
		{"nid00123.cluster", 123},
		{"42", 42},
		{"007", 7},
		{"a1b2c3", 1},
		{"login", 0},
		{"", 0},
		{"node-", 0},
		{"node٣", 0}, // non-ASCII digits are not digits
		{"node99999999999999", NodeKey(math.MaxInt32)},
	}
	for _, tt := range tests {
		if got := ExtractNodeKey(tt.label); got != tt.want {
			t.Errorf("ExtractNodeKey(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func Test_ParseHostLabel(t *testing.T) {
	if got := ParseHostLabel("  node042 extra "); got != "node042" {
		t.Errorf("got %q", got)
	}
	if got := ParseHostLabel(""); got != "" {
		t.Errorf("got %q", got)
	}
}
