package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

const maxSafeHostLen = 50

var hostReplacer = strings.NewReplacer(":", "_", "/", "_", "\\", "_")

// SafeHost идентификатор хоста, пригодный для имени файла
func SafeHost(hostID string) string {
	safe := hostReplacer.Replace(hostID)
	if len(safe) > maxSafeHostLen {
		safe = safe[:maxSafeHostLen]
	}
	return safe
}

// FileName имя файла выгрузки: export_{host}_{kind}_{YYYYmmdd_HHMMSS}.{format}
func FileName(hostID string, kind domain.ExportKind, format domain.ExportFormat, now time.Time) string {
	return fmt.Sprintf("export_%s_%s_%s.%s", SafeHost(hostID), kind, now.Format("20060102_150405"), format)
}
