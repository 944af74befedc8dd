package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptyPayload тело ответа пустое
	ErrEmptyPayload = errors.New("normalize: empty payload")

	// ErrUnexpectedShape тело ответа не объект и не список
	ErrUnexpectedShape = errors.New("normalize: unexpected payload shape")
)

// Payload разобранный JSON-ответ: объект с сохранённым порядком ключей верхнего уровня или список
type Payload struct {
	object map[string]any
	keys   []string
	list   []any
	isList bool
}

// ParsePayload разбирает тело ответа; числа остаются json.Number
func ParsePayload(body []byte) (Payload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Payload{}, ErrEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}

	switch typed := v.(type) {
	case map[string]any:
		keys, err := topLevelKeys(body)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		return Payload{object: typed, keys: keys}, nil
	case []any:
		return Payload{list: typed, isList: true}, nil
	default:
		return Payload{}, fmt.Errorf("%w: %T", ErrUnexpectedShape, v)
	}
}

// Field значение поля верхнего уровня объекта
func (p Payload) Field(name string) (any, bool) {
	if p.object == nil {
		return nil, false
	}
	v, ok := p.object[name]
	return v, ok
}

// IsList true, если ответ является списком
func (p Payload) IsList() bool {
	return p.isList
}

// topLevelKeys возвращает ключи объекта в порядке их появления в документе
func topLevelKeys(body []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var keys []string
	seen := make(map[string]struct{})

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}

		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	return keys, nil
}
