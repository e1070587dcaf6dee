package report

// Long values overflow into a continuation field instead of shrinking the
// font into illegibility. The primary field keeps at most splitMax
// characters; a natural break point is preferred from splitMin onward.
const (
	splitMin = 35
	splitMax = 50
)

func isBreakChar(b byte) bool {
	switch b {
	case ' ', '\t', ',', ';', '.', '-', '/':
		return true
	}
	return false
}

// SplitLongText splits a value that exceeds the primary field capacity.
// The cut lands after the last break character within [splitMin, splitMax];
// when the window holds none, the first break character past the window is
// used so a word is not cut mid-token. With no break point at all the value
// is hard-cut at splitMax. Returns split=false for values that fit.
func SplitLongText(s string) (head, tail string, split bool) {
	if len(s) <= splitMax {
		return s, "", false
	}

	cut := -1
	for i := splitMin; i <= splitMax && i < len(s); i++ {
		if isBreakChar(s[i]) {
			cut = i
		}
	}
	if cut < 0 {
		for i := splitMax + 1; i < len(s); i++ {
			if isBreakChar(s[i]) {
				cut = i
				break
			}
		}
	}
	if cut < 0 {
		return s[:splitMax], s[splitMax:], true
	}
	return s[:cut+1], s[cut+1:], true
}
