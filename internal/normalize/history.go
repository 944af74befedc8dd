package normalize

import (
	"sort"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// HistoryFields поля ответа истории, в которых лежат ряды индикаторов
var HistoryFields = []string{IndicatorsField, "history", "points"}

// HistoryPoints разбирает историю запроса в точки по датам
//
// Поддерживаются два вида ответа:
//   - {"indicators": {"TOTAL_SHOWS": [{"date": "...", "value": 1}], ...}}
//   - {"indicators": [{"date": "...", "TOTAL_SHOWS": 1, ...}, ...]} или просто список таких объектов
func HistoryPoints(p Payload) []domain.HistoryPoint {
	byDate := make(map[string]map[string]any)

	add := func(date, indicator string, value any) {
		if date == "" {
			return
		}
		if byDate[date] == nil {
			byDate[date] = make(map[string]any)
		}
		byDate[date][indicator] = value
	}

	addRows := func(rows []any) {
		for _, row := range objects(rows) {
			date := day(row["date"])
			for k, v := range row {
				if k != "date" {
					add(date, k, v)
				}
			}
		}
	}

	if p.isList {
		addRows(p.list)
	}

	for _, field := range HistoryFields {
		switch v := p.object[field].(type) {
		case map[string]any:
			for indicator, series := range v {
				rows, ok := series.([]any)
				if !ok {
					continue
				}
				for _, point := range objects(rows) {
					add(day(point["date"]), indicator, point["value"])
				}
			}
		case []any:
			addRows(v)
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]domain.HistoryPoint, 0, len(dates))
	for _, date := range dates {
		values := byDate[date]
		points = append(points, domain.HistoryPoint{
			Date:     date,
			Shows:    metricOf(values, MetricShows),
			Clicks:   metricOf(values, MetricClicks),
			Position: metricOf(values, MetricPosition),
			CTR:      metricOf(values, MetricCTR),
		})
	}

	return points
}

func metricOf(values map[string]any, m Metric) domain.OptionalFloat {
	v, ok := probe(nil, values, MetricAliases[m])
	if !ok {
		return domain.OptionalFloat{}
	}
	f, ok := ToFloat(v)
	if !ok {
		return domain.OptionalFloat{}
	}
	return domain.Float(f)
}

// day первые 10 символов даты (YYYY-MM-DD)
func day(v any) string {
	s := stringify(v)
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
