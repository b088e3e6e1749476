package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salesinsight/internal/config"
)

const sqliteParams = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

// QueryObserver receives the wall time of each dashboard sub-query.
type QueryObserver interface {
	ObserveQuery(component string, elapsed time.Duration)
}

// Store is the query and persistence layer over one database connection.
// The SQL dialect is fixed when the store is built.
type Store struct {
	db            *gorm.DB
	dialect       Dialect
	histogramDays int
	observer      QueryObserver
}

type Option func(*Store)

// WithHistogramDays sets how many daily view buckets ComputeDashboard returns.
func WithHistogramDays(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.histogramDays = n
		}
	}
}

func WithQueryObserver(o QueryObserver) Option {
	return func(s *Store) { s.observer = o }
}

// NewStore wraps an open connection. The dialect is derived from the gorm
// dialector and must be one of sqlite, postgres or mysql.
func NewStore(db *gorm.DB, opts ...Option) (*Store, error) {
	dialect, err := DialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: dialect, histogramDays: config.DefaultHistogramDays}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.dialect }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connect opens the configured database, applies pool settings, migrates
// the schema and returns a ready Store.
func Connect(cfg *config.Config, opts ...Option) (*Store, error) {
	db, err := Open(cfg.Database.URL, cfg.Debug)
	if err != nil {
		return nil, err
	}

	if err := ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	opts = append([]Option{WithHistogramDays(cfg.Dashboard.HistogramDays)}, opts...)
	return NewStore(db, opts...)
}

// Open dials the database named by url. Supported schemes are sqlite://,
// postgres://, postgresql:// and mysql://.
func Open(url string, debug bool) (*gorm.DB, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("database url is required")
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		dialector = sqlite.Open(sqliteDSN(strings.TrimPrefix(url, "sqlite://")))
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		// Without PrepareStmt the postgres migrator sends its column probe
		// ("SELECT * FROM table LIMIT 1") over the simple protocol, which
		// fails with "insufficient arguments".
		gormCfg.PrepareStmt = true
		dialector = postgres.Open(url)
	case strings.HasPrefix(url, "mysql://"):
		dialector = mysql.Open(mysqlDSN(strings.TrimPrefix(url, "mysql://")))
	default:
		scheme, _, _ := strings.Cut(url, "://")
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, scheme)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "salesinsight.db"
	}
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

// mysqlDSN makes sure DATE and DATETIME columns scan into time.Time in UTC.
func mysqlDSN(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "parseTime=") {
		params = append(params, "parseTime=true")
	}
	if !strings.Contains(dsn, "loc=") {
		params = append(params, "loc=UTC")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// ConfigureConnectionPool applies normalized pool settings to db.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	return nil
}

// NormalizeConnectionPoolSettings fills zero values with defaults
// (20 open, 5 idle, 5m lifetime, 10m idle time) and caps idle at open.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}
