package request_export

import (
	"context"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// ExportRepository интерфейс для постановки задач выгрузки
type ExportRepository interface {
	Create(ctx context.Context, job *domain.ExportJob) (int64, error)
}

// Queue будит обработчик задач, не дожидаясь очередного тика
type Queue interface {
	Kick()
}
