package hostcache

import "errors"

var (
	// ErrCacheMiss записи нет или срок её жизни истёк
	ErrCacheMiss = errors.New("repository: host cache miss")

	ErrBuildQuery = errors.New("repository: failed to build SQL query")
	ErrExecQuery  = errors.New("repository: failed to execute SQL query")
	ErrScanRow    = errors.New("repository: failed to scan row")
	ErrEncode     = errors.New("repository: failed to encode cached value")
)
