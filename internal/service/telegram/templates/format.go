package templates

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ProgressBarCells длина полосы прогресса
const ProgressBarCells = 20

// FormatNumber число с пробелами между разрядами: 1234567 -> "1 234 567"
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// FileSize размер в B/KB/MB/GB с двумя знаками
func FileSize(size int64) string {
	v := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.2f TB", v)
}

// ProgressBar полоса из ProgressBarCells ячеек и процент
func ProgressBar(current, total int) string {
	filled, pct := 0, 0.0
	if total > 0 {
		current = min(max(current, 0), total)
		filled = ProgressBarCells * current / total
		pct = float64(current) * 100 / float64(total)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", ProgressBarCells-filled) + fmt.Sprintf(" %.1f%%", pct)
}

// Truncate обрезает текст до n символов, заменяя хвост на "..."
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
