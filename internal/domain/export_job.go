package domain

import "time"

// ExportJob задача выгрузки, созданная из бота
type ExportJob struct {
	ID           int64
	JobUUID      string
	UserID       int64
	ChatID       int64
	MessageID    int
	HostID       string
	HostURL      string
	Kind         ExportKind
	Format       ExportFormat
	DeviceType   DeviceType
	DateFrom     string
	DateTo       string
	Status       ExportStatus
	RowsExported int64
	FilePath     *string
	FileSize     *int64
	CreatedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage *string
}

// IsFinished true для completed и failed
func (j *ExportJob) IsFinished() bool {
	return j.Status == ExportStatusCompleted || j.Status == ExportStatusFailed
}

// ExportStats агрегированная статистика выгрузок пользователя
type ExportStats struct {
	Total     int64
	Completed int64
	Failed    int64
	Rows      int64
	Bytes     int64
	ByKind    map[ExportKind]int64
	LastAt    *time.Time
}
