package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateShortInputUnchanged(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 2000))
}

func TestTruncateCapsAtMax(t *testing.T) {
	long := strings.Repeat("a", 2500)
	got := Truncate(long, 2000)
	assert.Len(t, []rune(got), 2000+len(TruncationMarker))
	assert.True(t, strings.HasSuffix(got, TruncationMarker))
}

func TestTruncateIsIdempotent(t *testing.T) {
	long := strings.Repeat("b", 3000)
	once := Truncate(long, 2000)
	twice := Truncate(once, 2000)
	assert.Equal(t, once, twice)
}

func TestTruncateExactBoundary(t *testing.T) {
	exact := strings.Repeat("c", 2000)
	assert.Equal(t, exact, Truncate(exact, 2000))
}

func TestTruncateZeroMaxIsNoOp(t *testing.T) {
	assert.Equal(t, "anything", Truncate("anything", 0))
}

func TestTruncateMultibyte(t *testing.T) {
	long := strings.Repeat("é", 100)
	got := Truncate(long, 50)
	assert.Len(t, []rune(got), 50+len(TruncationMarker))
}

func TestBoundSummaryShortUnchanged(t *testing.T) {
	assert.Equal(t, "Brief summary.", BoundSummary("Brief summary.", 200))
}

func TestBoundSummaryCutsAtWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := BoundSummary(long, 50)

	assert.LessOrEqual(t, len([]rune(got)), 50+len(TruncationMarker))
	assert.True(t, strings.HasSuffix(got, TruncationMarker))
	trimmed := strings.TrimSuffix(got, TruncationMarker)
	assert.False(t, strings.HasSuffix(trimmed, " "))
	assert.True(t, strings.HasSuffix(trimmed, "word"))
}

func TestBoundSummaryNoSpaceFallsBackToHardCut(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := BoundSummary(long, 200)
	assert.Len(t, []rune(got), 200+len(TruncationMarker))
}

func TestBoundSummaryNeverEmpty(t *testing.T) {
	got := BoundSummary(strings.Repeat("y", 10), 5)
	assert.NotEmpty(t, got)
}
