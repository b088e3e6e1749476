package db

import (
	"errors"
	"fmt"
)

// ErrUnsupportedDialect is returned for database backends with no bucket
// expressions.
var ErrUnsupportedDialect = errors.New("unsupported database dialect")

// Dialect renders the backend-specific SQL needed to bucket timestamps
// into calendar days and months. Both produce zero-padded text keys
// ("YYYY-MM-DD" and "YYYY-MM") so buckets sort lexically.
type Dialect interface {
	Name() string
	// DayBucket buckets a timestamp column by UTC calendar day.
	DayBucket(column string) string
	// MonthBucket buckets a date column by calendar month.
	MonthBucket(column string) string
}

// DialectFor selects the dialect matching a gorm dialector name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "sqlite":
		return sqliteDialect{}, nil
	case "postgres":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, name)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) DayBucket(column string) string {
	return "strftime('%Y-%m-%d', " + column + ")"
}

func (sqliteDialect) MonthBucket(column string) string {
	return "strftime('%Y-%m', " + column + ")"
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

// Timestamps are timestamptz; pin them to UTC before formatting so the
// session time zone does not move rows across days.
func (postgresDialect) DayBucket(column string) string {
	return "to_char(" + column + " AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
}

func (postgresDialect) MonthBucket(column string) string {
	return "to_char(" + column + ", 'YYYY-MM')"
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) DayBucket(column string) string {
	return "DATE_FORMAT(" + column + ", '%Y-%m-%d')"
}

func (mysqlDialect) MonthBucket(column string) string {
	return "DATE_FORMAT(" + column + ", '%Y-%m')"
}
