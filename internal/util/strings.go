package util

import (
	"fmt"
	"strings"
)

// EscapeString keeps printable ASCII and writes every other byte as \xNN,
// so the result always fits on one line of an assembly listing.
func EscapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= ' ' && c < 0x7f {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "\\x%02X", c)
	}
	return sb.String()
}
