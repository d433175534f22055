package grouping

import "fmt"

// nibbleBits[n] is the number of set bits in the 4-bit value n.
var nibbleBits = [16]int{0, 1, 1, 2, 1, 2, 2, 3, 1, 2, 2, 3, 2, 3, 3, 4}

// Hamming returns the number of differing bits between two hex strings of
// equal length. It panics if the lengths differ or a character is not a hex
// digit; both are programming errors upstream of grouping.
func Hamming(a, b string) int {
	if len(a) != len(b) {
		panic(fmt.Sprintf("grouping: hash length mismatch (%d vs %d)", len(a), len(b)))
	}

	distance := 0
	for i := 0; i < len(a); i++ {
		distance += nibbleBits[nibble(a[i])^nibble(b[i])]
	}
	return distance
}

// ValidHash reports whether s is a non-empty lowercase hex string, the form
// the hashing pass produces.
func ValidHash(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func nibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		panic(fmt.Sprintf("grouping: invalid hex digit %q", c))
	}
}
