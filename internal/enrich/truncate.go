package enrich

import "strings"

// TruncationMarker is appended wherever content is cut.
const TruncationMarker = "..."

// Truncate caps s at max runes, appending the truncation marker. Truncating
// already-truncated content is a no-op.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	// Output of a previous Truncate call: max runes plus the marker.
	if strings.HasSuffix(s, TruncationMarker) && len(runes) <= max+len(TruncationMarker) {
		return s
	}
	return string(runes[:max]) + TruncationMarker
}

// BoundSummary enforces the summary length bound: output over maxLen is cut
// at the last whole-word boundary before the bound, with the marker appended.
// The result never exceeds maxLen plus the marker.
func BoundSummary(summary string, maxLen int) string {
	if maxLen <= 0 {
		return summary
	}
	runes := []rune(summary)
	if len(runes) <= maxLen {
		return summary
	}

	cut := string(runes[:maxLen])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + TruncationMarker
}
