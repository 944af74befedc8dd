package hostcache

import (
	"github.com/FrankX3M/wordstat-api/pkg/dbmetrics"
)

type DBExecutor = dbmetrics.DBExecutor
