package types

import (
	"errors"
	"fmt"
	"time"
)

// TimeString время суток в формате "HH:MM" (например "03:30")
// Используется в конфигурации для ежедневных задач
type TimeString string

const (
	// TimeFormat формат времени для TimeString
	TimeFormat = "15:04"
)

var (
	// ErrInvalidTimeFormat возвращается при некорректном формате времени
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

	// ErrInvalidTimeValue возвращается при пустом значении
	ErrInvalidTimeValue = errors.New("invalid time value")
)

// UnmarshalText implements encoding.TextUnmarshaler (TOML, YAML)
func (t *TimeString) UnmarshalText(text []byte) error {
	v := TimeString(text)
	if err := v.Validate(); err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (t TimeString) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

func (t TimeString) String() string {
	return string(t)
}

// IsZero возвращает true, если время не установлено
func (t TimeString) IsZero() bool {
	return t == ""
}

// Validate проверяет формат; пустое значение допустимо
func (t TimeString) Validate() error {
	if t.IsZero() {
		return nil
	}

	if _, err := time.Parse(TimeFormat, string(t)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimeFormat, err)
	}

	return nil
}

// On возвращает момент времени t в день date (в часовом поясе date)
func (t TimeString) On(date time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrInvalidTimeValue
	}

	parsed, err := time.Parse(TimeFormat, string(t))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimeFormat, err)
	}

	y, m, d := date.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

// Next возвращает ближайший момент t строго после now
func (t TimeString) Next(now time.Time) (time.Time, error) {
	at, err := t.On(now)
	if err != nil {
		return time.Time{}, err
	}
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}
