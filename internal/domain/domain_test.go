package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCursor_Advance(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := FetchCursor{Offset: 100, TotalFetched: 100}

	next, err := c.Advance(37, 0, now)
	require.NoError(t, err)
	assert.Equal(t, FetchCursor{Offset: 137, TotalFetched: 137, UpdatedAt: now}, next)

	next, err = c.Advance(50, 200, now)
	require.NoError(t, err)
	assert.Equal(t, 200, next.Offset)
	assert.Equal(t, 150, next.TotalFetched)

	next, err = c.Advance(50, 120, now)
	require.NoError(t, err)
	assert.Equal(t, 150, next.Offset)

	_, err = c.Advance(-1, 0, now)
	assert.ErrorIs(t, err, ErrCursorRegression)
}

func TestDateRange_Validate(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	r, err := ParseDateRange("2024-06-01", "2024-06-15")
	require.NoError(t, err)
	assert.NoError(t, r.Validate(now, MaxRangeDays))
	assert.Equal(t, 14, r.Days())

	r, _ = ParseDateRange("2024-06-10", "2024-06-01")
	assert.ErrorIs(t, r.Validate(now, MaxRangeDays), ErrInvalidDateRange)

	r, _ = ParseDateRange("2024-06-10", "2024-06-16")
	assert.ErrorIs(t, r.Validate(now, MaxRangeDays), ErrInvalidDateRange)

	r, _ = ParseDateRange("2023-01-01", "2024-06-01")
	assert.ErrorIs(t, r.Validate(now, MaxRangeDays), ErrInvalidDateRange)

	_, err = ParseDateRange("01.06.2024", "2024-06-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestLastDays(t *testing.T) {
	r := LastDays(time.Date(2024, 3, 8, 23, 59, 0, 0, time.UTC), 7)
	assert.Equal(t, "2024-03-01", r.FromString())
	assert.Equal(t, "2024-03-08", r.ToString())
}

func TestParseEnums(t *testing.T) {
	d, err := ParseDeviceType("mobile")
	require.NoError(t, err)
	assert.Equal(t, DeviceMobile, d)
	_, err = ParseDeviceType("watch")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	k, err := ParseExportKind("All-Queries")
	require.NoError(t, err)
	assert.Equal(t, ExportAllQueries, k)
	assert.True(t, k.IsPaginated())
	assert.False(t, ExportAnalytics.IsPaginated())

	f, err := ParseExportFormat(".XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	o, err := ParseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, OrderByShows, o)
	_, err = ParseOrderBy("ctr")
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestQueryRecord_StableColumns(t *testing.T) {
	r := QueryRecord{HostID: "h", Query: "q", SampleTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	values := r.Values()
	require.Len(t, values, len(r.Columns()))
	assert.Equal(t, "", values[12], "position")
	assert.Equal(t, "", values[13], "demand")
	assert.Equal(t, "2024-01-01T00:00:00Z", values[15])

	data, err := json.Marshal(struct {
		Position OptionalFloat `json:"position"`
		Demand   OptionalFloat `json:"demand"`
	}{Position: Float(2.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":2.5,"demand":""}`, string(data))
}

func TestAnalyticsRecord_Values(t *testing.T) {
	r := AnalyticsRecord{
		QueryRecord: QueryRecord{Query: "q", Shows: 10},
		HistoryDays: 7,
		ShowsTrend:  Trend(10, 15),
	}

	values := r.Values()
	require.Len(t, values, len(r.Columns()))
	assert.Equal(t, int64(7), values[len(values)-3])
	assert.Equal(t, 50.0, values[len(values)-2])
	assert.Equal(t, "", values[len(values)-1])
	assert.False(t, Trend(0, 5).Valid)
}
