package strings

// Ellipsis is appended by Truncate when text is shortened.
const Ellipsis = "..."

// Truncate shortens s to at most n runes, appending Ellipsis when anything was cut.
// Counting is by rune so multi-byte text is never split mid-character.
//
// Example:
//
//	Truncate("Meet at the hobbit hole", 8)
//	// Returns: "Meet at ..."
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + Ellipsis
		}
		count++
	}
	return s
}

// RuneLen reports the number of runes in s.
func RuneLen(s string) int {
	count := 0
	for range s {
		count++
	}
	return count
}
