package domain

import "errors"

var (
	// ErrInvalidEnum значение не входит в допустимый набор
	ErrInvalidEnum = errors.New("domain: invalid value")

	// ErrInvalidDate дата не в формате YYYY-MM-DD
	ErrInvalidDate = errors.New("domain: invalid date")

	// ErrInvalidDateRange нарушены ограничения периода
	ErrInvalidDateRange = errors.New("domain: invalid date range")
)
