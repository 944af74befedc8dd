package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout формат дат API и конфигурации
	DateLayout = "2006-01-02"

	// MaxRangeDays максимальная длина периода выгрузки
	MaxRangeDays = 365
)

// DateRange период выгрузки, обе границы включительно
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDate разбирает дату YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseDateRange разбирает две даты YYYY-MM-DD
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := ParseDate(from)
	if err != nil {
		return DateRange{}, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{From: f, To: t}, nil
}

// LastDays период из days дней, заканчивающийся сегодняшним днём
func LastDays(now time.Time, days int) DateRange {
	today := truncateDay(now)
	return DateRange{From: today.AddDate(0, 0, -days), To: today}
}

// Validate проверяет from <= to, отсутствие будущих дат и длину периода не более maxDays
func (r DateRange) Validate(now time.Time, maxDays int) error {
	if r.From.After(r.To) {
		return fmt.Errorf("%w: date_from %s is after date_to %s", ErrInvalidDateRange, r.FromString(), r.ToString())
	}
	if r.To.After(truncateDay(now)) {
		return fmt.Errorf("%w: date_to %s is in the future", ErrInvalidDateRange, r.ToString())
	}
	if maxDays > 0 && r.Days() > maxDays {
		return fmt.Errorf("%w: period of %d days exceeds %d", ErrInvalidDateRange, r.Days(), maxDays)
	}
	return nil
}

// Days длина периода в днях (to - from)
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From).Hours() / 24)
}

func (r DateRange) FromString() string {
	return r.From.Format(DateLayout)
}

func (r DateRange) ToString() string {
	return r.To.Format(DateLayout)
}

func (r DateRange) String() string {
	return r.FromString() + " - " + r.ToString()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
