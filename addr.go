package bluetooth

import "strings"

// NormalizeAddress returns the canonical form of a device address.
// It's a MAC address on Linux or a device UUID on OS X; both are
// upper-cased, and MAC octets separated by '-' are rewritten with ':'.
func NormalizeAddress(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 17 && strings.Count(s, "-") == 5 {
		s = strings.Replace(s, "-", ":", -1)
	}
	return s
}
