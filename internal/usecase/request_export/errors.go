package request_export

import "errors"

var (
	// ErrInvalidInput возвращается, когда параметры мастера выгрузки некорректны
	ErrInvalidInput = errors.New("usecase: invalid export request")

	// ErrCreateJob возвращается при ошибке сохранения задачи
	ErrCreateJob = errors.New("usecase: failed to create export job")
)
