package sqlbuilder

import "github.com/Masterminds/squirrel"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// New возвращает squirrel builder с плейсхолдерами под драйвер
// postgres использует $1, $2, ..., остальные драйверы ?
func New(driver string) squirrel.StatementBuilderType {
	if driver == DriverPostgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}
