package grammar

// BalancedEnd returns the exclusive end index of the JSON literal that starts at s[0],
// tracking nesting depth of the open/close pair only. Brackets inside JSON string
// literals are ignored. It returns -1 when s does not start with open or depth never
// returns to zero.
func BalancedEnd(s string, open, close byte) int {
	if len(s) == 0 || s[0] != open {
		return -1
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// sliceBalanced cuts the balanced literal starting at s[start]. ok is false when the
// literal never closes.
func sliceBalanced(s string, start int, open, close byte) (literal string, end int, ok bool) {
	n := BalancedEnd(s[start:], open, close)
	if n < 0 {
		return "", 0, false
	}
	return s[start : start+n], start + n, true
}
