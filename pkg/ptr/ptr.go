package ptr

import "database/sql"

func Ptr[T any](v T) *T {
	return &v
}

func PtrGet[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}

	return *v
}

// NonZero указатель на v или nil для нулевого значения
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// FromNull указатель на значение колонки или nil для NULL
func FromNull[T any](v sql.Null[T]) *T {
	if !v.Valid {
		return nil
	}
	return &v.V
}

// ToNull значение для записи в колонку; nil записывается как NULL
func ToNull[T any](v *T) sql.Null[T] {
	if v == nil {
		return sql.Null[T]{}
	}
	return sql.Null[T]{V: *v, Valid: true}
}
