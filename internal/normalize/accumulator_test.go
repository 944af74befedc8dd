package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

func items(t *testing.T, body string) []map[string]any {
	t.Helper()
	list, _ := Extract(mustParse(t, body), 0, 100)
	return list
}

func TestAccumulate_Aliases(t *testing.T) {
	list := items(t, `{"queries": [
		{"query_id": "q1", "query_text": "купить слона", "indicators": {"TOTAL_SHOWS": 120.0, "AVG_SHOW_POSITION": 3.4}},
		{"query": "second", "shows": "15", "clicks": 3, "page": "https://a.ru/p"},
		{"request": "third", "indicators": [{"impressions": 1}, {"impressions": 9, "ctr": 0.5}]}
	]}`)
	require.Len(t, list, 3)

	first := Accumulate(list[0])
	assert.Equal(t, "q1", first.Key)
	assert.Equal(t, "купить слона", first.QueryText)
	require.NotNil(t, first.Shows)
	assert.Equal(t, 120.0, *first.Shows)
	require.NotNil(t, first.Position)
	assert.Equal(t, 3.4, *first.Position)
	assert.Nil(t, first.Clicks)

	second := Accumulate(list[1])
	assert.Equal(t, "second", second.Key)
	assert.Equal(t, 15.0, *second.Shows)
	assert.Equal(t, 3.0, *second.Clicks)
	assert.Equal(t, "https://a.ru/p", second.PageURL)

	third := Accumulate(list[2])
	assert.Equal(t, "third", third.QueryText)
	assert.Equal(t, 9.0, *third.Shows)
	assert.Equal(t, 0.5, *third.CTR)
}

func TestAccumulate_IndicatorsBeforeItem(t *testing.T) {
	list := items(t, `[{"query_id": "k", "shows": 1, "indicators": {"TOTAL_SHOWS": 2}}]`)

	acc := Accumulate(list[0])
	assert.Equal(t, 2.0, *acc.Shows)
}

func TestAccumulate_ZeroYieldsToLaterAlias(t *testing.T) {
	list := items(t, `[
		{"query_id": "a", "shows": 5, "indicators": {"TOTAL_SHOWS": 0}},
		{"query_id": "b", "shows": 0, "indicators": {"TOTAL_SHOWS": 0, "AVG_SHOW_POSITION": 0}}
	]`)

	first := Accumulate(list[0])
	require.NotNil(t, first.Shows)
	assert.Equal(t, 5.0, *first.Shows)

	second := Accumulate(list[1])
	require.NotNil(t, second.Shows)
	assert.Equal(t, 0.0, *second.Shows)
	require.NotNil(t, second.Position)
	assert.Equal(t, 0.0, *second.Position)
}

func TestAccumulate_MalformedValues(t *testing.T) {
	list := items(t, `[{"query_id": "k", "indicators": {"TOTAL_SHOWS": "many", "TOTAL_CLICKS": true, "DEMAND": ""}}]`)

	acc := Accumulate(list[0])
	assert.Nil(t, acc.Shows)
	assert.Nil(t, acc.Clicks)
	assert.Nil(t, acc.Demand)
	assert.Equal(t, 2, acc.Malformed)
}

func TestMerge_UnionOfDisjointMetrics(t *testing.T) {
	list := items(t, `[
		{"query_id": "k", "query_text": "q", "indicators": {"TOTAL_SHOWS": 100}},
		{"query_id": "k", "indicators": {"TOTAL_CLICKS": 7}}
	]`)

	merged := Merge(Accumulate(list[0]), Accumulate(list[1]))

	assert.Equal(t, "q", merged.QueryText)
	assert.Equal(t, 100.0, *merged.Shows)
	assert.Equal(t, 7.0, *merged.Clicks)
	assert.Len(t, merged.Raw["indicators"], 2)
}

func TestMerge_LaterValueWins(t *testing.T) {
	list := items(t, `[
		{"query_id": "k", "indicators": {"TOTAL_SHOWS": 100, "CTR": 0.1}},
		{"query_id": "k", "indicators": {"TOTAL_SHOWS": 150}}
	]`)

	merged := Merge(Accumulate(list[0]), Accumulate(list[1]))

	assert.Equal(t, 150.0, *merged.Shows)
	assert.Equal(t, 0.1, *merged.CTR)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	list := items(t, `[
		{"query_id": "k", "indicators": {"TOTAL_SHOWS": 1}},
		{"query_id": "k", "indicators": {"TOTAL_SHOWS": 2}}
	]`)
	a, b := Accumulate(list[0]), Accumulate(list[1])

	_ = Merge(a, b)

	assert.Equal(t, 1.0, *a.Shows)
	assert.Len(t, a.Raw["indicators"], 1)
}

func TestToRecord_MissingEverything(t *testing.T) {
	rec := ToRecord(Accumulate(map[string]any{"query_text": "nothing"}), RecordContext{})

	assert.Equal(t, int64(0), rec.Shows)
	assert.Equal(t, int64(0), rec.Clicks)
	assert.Equal(t, 0.0, rec.CTR)
	assert.Equal(t, "", rec.Position.String())
	assert.Equal(t, "", rec.Demand.String())
}

func TestToRecord_DerivesCTRAndCoercesCounts(t *testing.T) {
	list := items(t, `[{"query_id": "k", "query_text": "q", "indicators": {"TOTAL_SHOWS": 3.9, "TOTAL_CLICKS": -2}}]`)
	sample := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := ToRecord(Accumulate(list[0]), RecordContext{
		HostID:     "h",
		DateFrom:   "2024-04-01",
		DateTo:     "2024-04-30",
		RegionID:   225,
		DeviceType: domain.DeviceAll,
		OrderBy:    domain.OrderByShows,
		SampleTime: sample,
	})

	assert.Equal(t, int64(3), rec.Shows)
	assert.Equal(t, int64(0), rec.Clicks)
	assert.Equal(t, 0.0, rec.CTR)
	assert.Equal(t, "k", rec.QueryID)
	assert.Equal(t, 225, rec.RegionID)
	assert.JSONEq(t, `{"query_id":"k","query_text":"q","indicators":{"TOTAL_SHOWS":3.9,"TOTAL_CLICKS":-2}}`, rec.RawJSON)

	list = items(t, `[{"query_id": "k", "indicators": {"TOTAL_SHOWS": 3, "TOTAL_CLICKS": 1}}]`)
	rec = ToRecord(Accumulate(list[0]), RecordContext{})
	assert.Equal(t, 0.333333, rec.CTR)
}

func TestToRecord_HugeCountsStayPositive(t *testing.T) {
	list := items(t, `[{"query_id": "k", "indicators": {"TOTAL_SHOWS": "1e30", "TOTAL_CLICKS": 9223372036854775807}}]`)

	rec := ToRecord(Accumulate(list[0]), RecordContext{})

	assert.Equal(t, int64(math.MaxInt64), rec.Shows)
	assert.Equal(t, int64(math.MaxInt64), rec.Clicks)
	assert.Equal(t, int64(math.MaxInt64), Count(ptrFloat(math.Inf(1))))
}

func ptrFloat(f float64) *float64 {
	return &f
}

func TestHistoryPoints_SeriesShape(t *testing.T) {
	p := mustParse(t, `{"indicators": {
		"TOTAL_SHOWS": [{"date": "2024-05-02T00:00:00.000+03:00", "value": 20}, {"date": "2024-05-01T00:00:00.000+03:00", "value": 10}],
		"TOTAL_CLICKS": [{"date": "2024-05-01T00:00:00.000+03:00", "value": 1}]
	}}`)

	points := HistoryPoints(p)
	require.Len(t, points, 2)
	assert.Equal(t, "2024-05-01", points[0].Date)
	assert.Equal(t, domain.Float(10), points[0].Shows)
	assert.Equal(t, domain.Float(1), points[0].Clicks)
	assert.Equal(t, "2024-05-02", points[1].Date)
	assert.False(t, points[1].Clicks.Valid)
}

func TestHistoryPoints_RowShape(t *testing.T) {
	p := mustParse(t, `[{"date": "2024-05-01", "shows": 5, "AVG_SHOW_POSITION": 2.5}]`)

	points := HistoryPoints(p)
	require.Len(t, points, 1)
	assert.Equal(t, domain.Float(5), points[0].Shows)
	assert.Equal(t, domain.Float(2.5), points[0].Position)
}
