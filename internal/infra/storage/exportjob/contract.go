package exportjob

import (
	"github.com/FrankX3M/wordstat-api/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor
