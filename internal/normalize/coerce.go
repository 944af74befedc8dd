package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloat приводит значение к float64; строки разбираются, bool и NaN не принимаются
func ToFloat(v any) (float64, bool) {
	var f float64

	switch typed := v.(type) {
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = typed
	case float32:
		f = float64(typed)
	case int:
		f = float64(typed)
	case int64:
		f = float64(typed)
	case int32:
		f = float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt принимает только целые числа (json.Number без дробной части или int)
func toInt(v any) (int, bool) {
	switch typed := v.(type) {
	case json.Number:
		i, err := typed.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return typed, true
	case int64:
		return int(typed), true
	default:
		return 0, false
	}
}

// Count усекает до целого и отсекает отрицательные значения
func Count(f *float64) int64 {
	if f == nil || *f <= 0 {
		return 0
	}
	// float64(math.MaxInt64) равно 2^63 и в int64 уже не помещается
	if *f >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(math.Trunc(*f))
}

// truthy пустые значения JSON: null, 0, "", [], {}, false
func truthy(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case json.Number:
		f, err := typed.Float64()
		return err != nil || f != 0
	case float64:
		return typed != 0
	case []any:
		return len(typed) > 0
	case map[string]any:
		return len(typed) > 0
	default:
		return true
	}
}

// zeroNumber числовой ноль из JSON
func zeroNumber(v any) bool {
	switch typed := v.(type) {
	case json.Number:
		f, err := typed.Float64()
		return err == nil && f == 0
	case float64:
		return typed == 0
	case int:
		return typed == 0
	default:
		return false
	}
}

// present значение считается переданным, если оно не null и не пустая строка
func present(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}
