package domain

import "time"

// HistoryPoint значения индикаторов запроса за один день
type HistoryPoint struct {
	Date     string
	Shows    OptionalFloat
	Clicks   OptionalFloat
	Position OptionalFloat
	CTR      OptionalFloat
}

// HistoryRecord строка выгрузки истории запроса
type HistoryRecord struct {
	HostID     string
	QueryID    string
	Query      string
	Date       string
	DeviceType DeviceType
	Point      HistoryPoint
}

var HistoryRecordColumns = []string{
	"host_id",
	"query_id",
	"query",
	"date",
	"device_type",
	"total_shows",
	"total_clicks",
	"ctr",
	"position",
}

func (r HistoryRecord) Columns() []string {
	return HistoryRecordColumns
}

func (r HistoryRecord) Values() []any {
	return []any{
		r.HostID,
		r.QueryID,
		r.Query,
		r.Date,
		string(r.DeviceType),
		r.Point.Shows.Cell(),
		r.Point.Clicks.Cell(),
		r.Point.CTR.Cell(),
		r.Point.Position.Cell(),
	}
}

// AnalyticsRecord запрос с динамикой показов и кликов за период
type AnalyticsRecord struct {
	QueryRecord
	HistoryDays int
	ShowsTrend  OptionalFloat
	ClicksTrend OptionalFloat
}

var AnalyticsRecordColumns = append(append([]string{}, QueryRecordColumns[:len(QueryRecordColumns)-1]...),
	"history_days",
	"shows_trend_pct",
	"clicks_trend_pct",
)

func (r AnalyticsRecord) Columns() []string {
	return AnalyticsRecordColumns
}

func (r AnalyticsRecord) Values() []any {
	base := r.QueryRecord.Values()
	values := append([]any{}, base[:len(base)-1]...)
	return append(values, int64(r.HistoryDays), r.ShowsTrend.Cell(), r.ClicksTrend.Cell())
}

// Trend изменение в процентах между первым и последним значением ряда
// Для нулевого первого значения тренд не определён
func Trend(first, last float64) OptionalFloat {
	if first == 0 {
		return OptionalFloat{}
	}
	return Float(RoundTo((last-first)/first*100, 2))
}

// SampleNow момент формирования выгрузки, без долей секунды
func SampleNow(now time.Time) time.Time {
	return now.UTC().Truncate(time.Second)
}
