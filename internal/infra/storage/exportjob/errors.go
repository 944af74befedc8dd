package exportjob

import "errors"

var (
	// ErrExportNotFound возвращается, когда задача выгрузки не найдена
	ErrExportNotFound = errors.New("repository: export not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("repository: failed to build SQL query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("repository: failed to execute SQL query")

	// ErrScanRow возвращается при ошибке сканирования строки результата
	ErrScanRow = errors.New("repository: failed to scan row")
)
