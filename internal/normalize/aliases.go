package normalize

// Scope где искать поле: в объекте indicators записи или в самой записи
type Scope int

const (
	ScopeIndicators Scope = iota
	ScopeItem
)

// Alias одно из возможных имён поля в ответе API
type Alias struct {
	Scope Scope
	Key   string
}

func ind(key string) Alias  { return Alias{Scope: ScopeIndicators, Key: key} }
func item(key string) Alias { return Alias{Scope: ScopeItem, Key: key} }

// Metric каноническое имя метрики записи
type Metric string

const (
	MetricShows    Metric = "shows"
	MetricClicks   Metric = "clicks"
	MetricCTR      Metric = "ctr"
	MetricPosition Metric = "position"
	MetricDemand   Metric = "demand"
)

// Metrics порядок метрик
var Metrics = []Metric{MetricShows, MetricClicks, MetricCTR, MetricPosition, MetricDemand}

// MetricAliases имена метрик в порядке перебора; берётся первое переданное значение
var MetricAliases = map[Metric][]Alias{
	MetricShows: {
		ind("TOTAL_SHOWS"), ind("shows"), ind("impressions"), ind("total_shows"),
		item("TOTAL_SHOWS"), item("shows"),
	},
	MetricClicks: {
		ind("TOTAL_CLICKS"), ind("clicks"), ind("total_clicks"),
		item("TOTAL_CLICKS"), item("clicks"),
	},
	MetricCTR: {
		ind("CTR"), ind("ctr"),
		item("CTR"), item("ctr"),
	},
	MetricPosition: {
		ind("AVG_SHOW_POSITION"), ind("AVG_CLICK_POSITION"), ind("avg_show_position"), ind("avg_position"), ind("position"),
		item("AVG_SHOW_POSITION"), item("position"),
	},
	MetricDemand: {
		ind("DEMAND"), ind("demand"), ind("popularity"),
		item("DEMAND"), item("demand"),
	},
}

// PageAliases адрес целевой страницы
var PageAliases = []Alias{ind("page"), item("page"), item("url"), ind("landing_url")}

// QueryTextAliases текст запроса
var QueryTextAliases = []Alias{item("query_text"), item("query"), item("request"), item("text")}

// KeyAliases ключ записи для склейки под-запросов
var KeyAliases = []Alias{item("query_id")}

// IndicatorsField поле записи с индикаторами
const IndicatorsField = "indicators"

// probe возвращает первое переданное значение по списку имён
// Числовой ноль уступает ненулевому значению следующего имени и возвращается, только если других нет
func probe(record, indicators map[string]any, aliases []Alias) (any, bool) {
	var zero any
	for _, a := range aliases {
		src := record
		if a.Scope == ScopeIndicators {
			src = indicators
		}
		if src == nil {
			continue
		}
		v, ok := src[a.Key]
		if !ok || !present(v) {
			continue
		}
		if zeroNumber(v) {
			if zero == nil {
				zero = v
			}
			continue
		}
		return v, true
	}
	return zero, zero != nil
}

// indicatorsOf объект индикаторов записи; для списка берётся последний элемент-объект
func indicatorsOf(record map[string]any) map[string]any {
	switch v := record[IndicatorsField].(type) {
	case map[string]any:
		return v
	case []any:
		for i := len(v) - 1; i >= 0; i-- {
			if m, ok := v[i].(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}
