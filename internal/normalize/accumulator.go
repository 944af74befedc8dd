package normalize

import (
	"fmt"
	"strings"
)

// Accumulator запись, собираемая из под-запросов по разным индикаторам
// nil в поле метрики означает, что значение ещё не встречалось
type Accumulator struct {
	Key       string
	QueryID   string
	QueryText string
	PageURL   string

	Shows    *float64
	Clicks   *float64
	CTR      *float64
	Position *float64
	Demand   *float64

	// Malformed число значений метрик, которые не удалось привести к числу
	Malformed int
	Raw       map[string]any
}

// Accumulate разбирает сырую запись ответа
func Accumulate(record map[string]any) Accumulator {
	indicators := indicatorsOf(record)

	acc := Accumulator{Raw: record}

	if v, ok := probe(record, indicators, KeyAliases); ok {
		acc.QueryID = stringify(v)
	}
	if v, ok := probe(record, indicators, QueryTextAliases); ok {
		acc.QueryText = stringify(v)
	}
	if v, ok := probe(record, indicators, PageAliases); ok {
		acc.PageURL = stringify(v)
	}

	acc.Key = acc.QueryID
	if acc.Key == "" {
		acc.Key = acc.QueryText
	}

	for _, m := range Metrics {
		v, ok := probe(record, indicators, MetricAliases[m])
		if !ok {
			continue
		}
		f, ok := ToFloat(v)
		if !ok {
			acc.Malformed++
			continue
		}
		*acc.field(m) = &f
	}

	return acc
}

// Merge объединяет две части одной записи
// Метрики объединяются; значение из incoming перекрывает значение из existing
func Merge(existing, incoming Accumulator) Accumulator {
	merged := existing

	if merged.Key == "" {
		merged.Key = incoming.Key
	}
	if merged.QueryID == "" {
		merged.QueryID = incoming.QueryID
	}
	if merged.QueryText == "" {
		merged.QueryText = incoming.QueryText
	}
	if merged.PageURL == "" {
		merged.PageURL = incoming.PageURL
	}

	for _, m := range Metrics {
		if v := *incoming.field(m); v != nil {
			*merged.field(m) = v
		}
	}

	merged.Malformed = existing.Malformed + incoming.Malformed
	merged.Raw = mergeRaw(existing.Raw, incoming.Raw)

	return merged
}

// Get значение метрики
func (a *Accumulator) Get(m Metric) *float64 {
	return *a.field(m)
}

func (a *Accumulator) field(m Metric) **float64 {
	switch m {
	case MetricShows:
		return &a.Shows
	case MetricClicks:
		return &a.Clicks
	case MetricCTR:
		return &a.CTR
	case MetricPosition:
		return &a.Position
	default:
		return &a.Demand
	}
}

// mergeRaw поверхностное объединение; объекты indicators объединяются по ключам
func mergeRaw(existing, incoming map[string]any) map[string]any {
	if existing == nil && incoming == nil {
		return nil
	}

	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}

	for k, v := range incoming {
		prev, okPrev := out[k].(map[string]any)
		next, okNext := v.(map[string]any)
		if k == IndicatorsField && okPrev && okNext {
			combined := make(map[string]any, len(prev)+len(next))
			for ik, iv := range prev {
				combined[ik] = iv
			}
			for ik, iv := range next {
				combined[ik] = iv
			}
			out[k] = combined
			continue
		}
		out[k] = v
	}

	return out
}

func stringify(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}
