package mustache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SQL source defaults
const (
	SQLDefaultTableName       = "mustache_templates"
	SQLDefaultMaxOpenConns    = 25
	SQLDefaultMaxIdleConns    = 5
	SQLDefaultConnMaxLifetime = 5 * time.Minute
	SQLDefaultQueryTimeout    = 30 * time.Second
)

// SQL source error messages
const (
	ErrMsgSQLEmptyDSN         = "database connection string cannot be empty"
	ErrMsgSQLConnectionFailed = "failed to connect to database"
	ErrMsgSQLMigrationFailed  = "failed to migrate template table"
	ErrMsgSQLQueryFailed      = "template query failed"
)

// SQLDialect captures the differences between supported databases.
type SQLDialect struct {
	// DriverName is the database/sql driver name.
	DriverName string

	// Placeholder returns the bind parameter for the n-th argument (1-based).
	Placeholder func(n int) string

	// Now is the SQL expression for the current timestamp.
	Now string
}

// Supported dialects
var (
	DialectPostgres = SQLDialect{
		DriverName:  "postgres",
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		Now:         "NOW()",
	}
	DialectSQLite = SQLDialect{
		DriverName:  sqliteDriverName,
		Placeholder: func(int) string { return "?" },
		Now:         "CURRENT_TIMESTAMP",
	}
)

// SQLConfig configures a SQLSource.
type SQLConfig struct {
	// DSN is the driver-specific connection string.
	DSN string

	// Dialect selects driver name and SQL flavour.
	Dialect SQLDialect

	// TableName overrides the template table.
	// Default: "mustache_templates"
	TableName string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 25
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime.
	// Default: 5 minutes
	ConnMaxLifetime time.Duration

	// QueryTimeout bounds each query.
	// Default: 30 seconds
	QueryTimeout time.Duration

	// AutoMigrate creates the template table on open.
	AutoMigrate bool

	// Logger receives migration messages. May be nil.
	Logger *zap.Logger
}

// SQLSource stores templates in a single SQL table keyed by name.
type SQLSource struct {
	db     *sql.DB
	config SQLConfig
	mu     sync.RWMutex
	closed bool
}

// NewSQLSource opens the database and verifies the connection.
func NewSQLSource(config SQLConfig) (*SQLSource, error) {
	if config.DSN == "" {
		return nil, NewConfigError(ErrMsgSQLEmptyDSN, MetaKeySource, config.Dialect.DriverName)
	}
	if config.TableName == "" {
		config.TableName = SQLDefaultTableName
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = SQLDefaultMaxOpenConns
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = SQLDefaultMaxIdleConns
	}
	if config.ConnMaxLifetime == 0 {
		config.ConnMaxLifetime = SQLDefaultConnMaxLifetime
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = SQLDefaultQueryTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	db, err := sql.Open(config.Dialect.DriverName, config.DSN)
	if err != nil {
		return nil, NewSourceError(ErrMsgSQLConnectionFailed, config.Dialect.DriverName, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), config.QueryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewSourceError(ErrMsgSQLConnectionFailed, config.Dialect.DriverName, err)
	}

	s := &SQLSource{db: db, config: config}
	if config.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// DB returns the underlying connection pool.
func (s *SQLSource) DB() *sql.DB {
	return s.db
}

// Migrate creates the template table if it does not exist.
func (s *SQLSource) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name       TEXT PRIMARY KEY,
			source     TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, s.config.TableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return NewSourceError(ErrMsgSQLMigrationFailed, s.config.TableName, err)
	}
	s.config.Logger.Info(LogMsgSourceMigrated,
		zap.String(LogFieldDriver, s.config.Dialect.DriverName),
		zap.String(LogFieldName, s.config.TableName))
	return nil
}

// Load implements TemplateSource
func (s *SQLSource) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", NewSourceClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT source FROM %s WHERE name = %s`,
		s.config.TableName, s.config.Dialect.Placeholder(1))

	var src string
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&src); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", NewTemplateNotFoundError(name)
		}
		return "", NewSourceError(ErrMsgSQLQueryFailed, name, err)
	}
	return src, nil
}

// Save implements TemplateStore. Existing rows are replaced.
func (s *SQLSource) Save(ctx context.Context, name, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return NewInvalidTemplateNameError(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewSourceClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	ph := s.config.Dialect.Placeholder
	query := fmt.Sprintf(`
		INSERT INTO %s (name, source, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (name) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at`,
		s.config.TableName, ph(1), ph(2), s.config.Dialect.Now)

	if _, err := s.db.ExecContext(ctx, query, name, source); err != nil {
		return NewSourceError(ErrMsgSQLQueryFailed, name, err)
	}
	return nil
}

// Delete implements TemplateStore
func (s *SQLSource) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewSourceClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE name = %s`,
		s.config.TableName, s.config.Dialect.Placeholder(1))

	res, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return NewSourceError(ErrMsgSQLQueryFailed, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return NewSourceError(ErrMsgSQLQueryFailed, name, err)
	}
	if n == 0 {
		return NewTemplateNotFoundError(name)
	}
	return nil
}

// List implements TemplateStore
func (s *SQLSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewSourceClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, s.config.TableName))
	if err != nil {
		return nil, NewSourceError(ErrMsgSQLQueryFailed, s.config.TableName, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, NewSourceError(ErrMsgSQLQueryFailed, s.config.TableName, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, NewSourceError(ErrMsgSQLQueryFailed, s.config.TableName, err)
	}
	return names, nil
}

// Close implements TemplateStore
func (s *SQLSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
