package marketdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/helmsman/internal/domain"
	helpers "github.com/aristath/helmsman/internal/testing"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	db, cleanup := helpers.NewTestDB(t, "bars")
	store, err := NewStore(db.Conn(), zerolog.Nop())
	require.NoError(t, err)
	return store, cleanup
}

func testBars(count int) []domain.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, count)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = domain.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price, High: price + 1, Low: price - 1, Close: price,
			Volume: 1000,
		}
	}
	return bars
}

func TestSaveAndLoadBars(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	require.NoError(t, store.SaveBars("aapl", domain.Timeframe1d, testBars(5)))

	series, ok := store.Bars(" AAPL ", domain.Timeframe1d)
	require.True(t, ok, "Symbol lookup is case and whitespace insensitive")
	assert.Equal(t, "AAPL", series.Symbol)
	assert.Equal(t, 5, series.Len())
	assert.InDelta(t, 100.0, series.Bars[0].Close, 1e-9)
	assert.InDelta(t, 104.0, series.Latest().Close, 1e-9)

	_, ok = store.Bars("AAPL", domain.Timeframe1h)
	assert.False(t, ok, "A different timeframe is a different series")
	_, ok = store.Bars("MSFT", domain.Timeframe1d)
	assert.False(t, ok)
}

func TestSaveBarsDuplicatesKeepFirst(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	bars := testBars(3)
	require.NoError(t, store.SaveBars("AAPL", domain.Timeframe1d, bars))

	// Re-saving the same timestamps with different values must not change
	// the stored series
	altered := testBars(3)
	for i := range altered {
		altered[i].Close = 999
	}
	require.NoError(t, store.SaveBars("AAPL", domain.Timeframe1d, altered))

	series, ok := store.Bars("AAPL", domain.Timeframe1d)
	require.True(t, ok)
	assert.Equal(t, 3, series.Len())
	assert.InDelta(t, 100.0, series.Bars[0].Close, 1e-9)
}

func TestSectorBarsAndListing(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	require.NoError(t, store.SaveSectorBars("technology", testBars(3)))
	require.NoError(t, store.SaveSectorBars("energy", testBars(3)))

	series, ok := store.SectorBars("technology")
	require.True(t, ok)
	assert.Equal(t, 3, series.Len())

	assert.Equal(t, []string{"energy", "technology"}, store.Sectors())
}

func TestMacroBars(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	require.NoError(t, store.SaveMacroBars("vix", testBars(3)))

	series, ok := store.MacroBars("VIX")
	require.True(t, ok)
	assert.Equal(t, 3, series.Len())
}

func TestSectorMapping(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	require.NoError(t, store.SetSector("aapl", "technology"))

	sector, ok := store.Sector("AAPL")
	require.True(t, ok)
	assert.Equal(t, "technology", sector)

	// Upsert replaces the previous classification
	require.NoError(t, store.SetSector("AAPL", "communication"))
	sector, _ = store.Sector("AAPL")
	assert.Equal(t, "communication", sector)

	_, ok = store.Sector("MSFT")
	assert.False(t, ok)
}
