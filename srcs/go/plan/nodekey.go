package plan

import (
	"math"
	"strings"
)

// NodeKey identifies a node by the number embedded in its host label.
// Distinct hosts whose labels carry the same number share a key.
type NodeKey int

// ParseHostLabel keeps the first whitespace separated token of a processor
// name.
func ParseHostLabel(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ExtractNodeKey returns the decimal number starting at the first digit of
// label, e.g. "node042-ib0" -> 42. Parsing stops at the first non-digit,
// values beyond MaxInt32 saturate, and a label without digits yields 0.
func ExtractNodeKey(label string) NodeKey {
	i := strings.IndexFunc(label, isDigit)
	if i < 0 {
		return 0
	}
	var n int64
	for _, c := range label[i:] {
		if !isDigit(c) {
			break
		}
		n = n*10 + int64(c-'0')
		if n > math.MaxInt32 {
			return NodeKey(math.MaxInt32)
		}
	}
	return NodeKey(n)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}
