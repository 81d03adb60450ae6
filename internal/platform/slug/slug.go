package slug

import "strings"

// MaxLen bounds slugs so they stay usable as file names.
const MaxLen = 64

// Make turns a slot id into a file-name-safe token: lowercase ASCII letters,
// digits and single dashes. Empty results become "slot".
func Make(input string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(input) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
		if b.Len() >= MaxLen {
			break
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if len(s) > MaxLen {
		s = strings.TrimRight(s[:MaxLen], "-")
	}
	if s == "" {
		return "slot"
	}
	return s
}
