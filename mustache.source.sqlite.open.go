package mustache

// SQLite allows a single writer. One long-lived connection also keeps
// ":memory:" databases alive; a negative lifetime never recycles it.
const (
	sqliteMaxOpenConns    = 1
	sqliteConnMaxLifetime = -1
)

func init() {
	RegisterSourceDriver(SourceDriverSQLite, SourceDriverFunc(func(path string) (TemplateStore, error) {
		return NewSQLiteSource(path)
	}))
}

// NewSQLiteSource opens (or creates) a SQLite database file holding
// templates. Use ":memory:" for a throwaway database.
// Build with -tags cgo_sqlite to use mattn/go-sqlite3 instead of the
// pure Go driver.
func NewSQLiteSource(path string) (*SQLSource, error) {
	return NewSQLSource(SQLConfig{
		DSN:             path,
		Dialect:         DialectSQLite,
		MaxOpenConns:    sqliteMaxOpenConns,
		MaxIdleConns:    sqliteMaxOpenConns,
		ConnMaxLifetime: sqliteConnMaxLifetime,
		AutoMigrate:     true,
	})
}
