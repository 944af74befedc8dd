package normalize

// ResultFields поля со списком результатов в порядке приоритета
var ResultFields = []string{
	"queries",
	"popular_queries",
	"search_queries",
	"rows",
	"items",
	"data",
	"results",
}

// TotalCountFields поля с общим количеством записей в порядке приоритета
var TotalCountFields = []string{"total_count", "count"}

// NextOffsetField поле с явным смещением следующей страницы
const NextOffsetField = "next_offset"

// Extract достаёт записи страницы и подсказку смещения следующей страницы
//
// Подсказка вычисляется строго по порядку:
//  1. общее количество (целое, ненулевое): offset+len, если offset+len <= total;
//  2. поле next_offset, если оно есть (null означает "дальше нет");
//  3. полная страница (len == limit): offset+len.
//
// Подсказка не используется для решения о завершении выгрузки.
func Extract(p Payload, offset, limit int) ([]map[string]any, *int) {
	if p.isList {
		items := objects(p.list)
		if limit > 0 && len(p.list) == limit {
			return items, intPtr(offset + len(p.list))
		}
		return items, nil
	}

	list := resultList(p)
	items := objects(list)
	n := len(list)

	if total, ok := TotalCount(p); ok {
		if offset+n <= total {
			return items, intPtr(offset + n)
		}
		return items, nil
	}

	if v, ok := p.Field(NextOffsetField); ok {
		if next, ok := toInt(v); ok {
			return items, intPtr(next)
		}
		return items, nil
	}

	if limit > 0 && n == limit {
		return items, intPtr(offset + n)
	}

	return items, nil
}

// TotalCount общее количество записей, если API его сообщил
// Берётся первое "непустое" из TotalCountFields; засчитывается только целое число
func TotalCount(p Payload) (int, bool) {
	for _, field := range TotalCountFields {
		v, ok := p.Field(field)
		if !ok || !truthy(v) {
			continue
		}
		return toInt(v)
	}
	return 0, false
}

// resultList список результатов: сначала известные поля, затем первое поле-список по порядку ключей
func resultList(p Payload) []any {
	for _, field := range ResultFields {
		if list, ok := p.object[field].([]any); ok {
			return list
		}
	}
	for _, key := range p.keys {
		if list, ok := p.object[key].([]any); ok {
			return list
		}
	}
	return nil
}

func objects(list []any) []map[string]any {
	items := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}

func intPtr(v int) *int {
	return &v
}
