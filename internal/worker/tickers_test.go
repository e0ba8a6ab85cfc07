package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreTickerSourceReadsStore(t *testing.T) {
	st := &mockStore{}
	st.On("ListTrackedTickers", context.Background()).Return([]string{"AAPL", "NVDA"}, nil)

	src := NewStoreTickerSource(st, []string{"FALLBACK"})
	got, err := src.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, got)
}

func TestStoreTickerSourceCaches(t *testing.T) {
	st := &mockStore{}
	st.On("ListTrackedTickers", context.Background()).Return([]string{"NVDA"}, nil).Once()

	src := NewStoreTickerSource(st, nil)
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	src.nowFunc = func() time.Time { return now }

	_, err := src.Tickers(context.Background())
	require.NoError(t, err)

	// Within the TTL the store is not hit again.
	now = now.Add(time.Minute)
	got, err := src.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, got)
	st.AssertNumberOfCalls(t, "ListTrackedTickers", 1)
}

func TestStoreTickerSourceEmptyStoreFallsBack(t *testing.T) {
	st := &mockStore{}
	st.On("ListTrackedTickers", context.Background()).Return([]string{}, nil)

	src := NewStoreTickerSource(st, []string{"AAPL"})
	got, err := src.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, got)
}

func TestStoreTickerSourceLookupFailureFallsBack(t *testing.T) {
	st := &mockStore{}
	st.On("ListTrackedTickers", context.Background()).Return(nil, errors.New("down"))

	src := NewStoreTickerSource(st, []string{"AAPL"})
	got, err := src.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, got)
}

func TestStoreTickerSourceLookupFailureKeepsLastKnown(t *testing.T) {
	st := &mockStore{}
	st.On("ListTrackedTickers", context.Background()).Return([]string{"NVDA"}, nil).Once()
	st.On("ListTrackedTickers", context.Background()).Return(nil, errors.New("down"))

	src := NewStoreTickerSource(st, []string{"FALLBACK"})
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	src.nowFunc = func() time.Time { return now }

	_, err := src.Tickers(context.Background())
	require.NoError(t, err)

	// TTL expires and the refresh fails; the cached set survives.
	now = now.Add(10 * time.Minute)
	got, err := src.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, got)
}

func TestStaticTickerSource(t *testing.T) {
	got, err := StaticTickerSource{"NVDA"}.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, got)
}
