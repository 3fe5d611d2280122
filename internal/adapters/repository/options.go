package repository

// sqliteConfig holds open-time settings for the SQLite store.
type sqliteConfig struct {
	driver      string
	busyTimeout int
	journalMode string
}

func defaults() sqliteConfig {
	return sqliteConfig{
		driver:      "sqlite",
		busyTimeout: 10_000,
		journalMode: "WAL",
	}
}

// Option customises NewSQLiteStore behaviour.
type Option func(*sqliteConfig)

// WithDriver sets the database/sql driver name. Default: "sqlite".
func WithDriver(name string) Option {
	return func(c *sqliteConfig) {
		if name != "" {
			c.driver = name
		}
	}
}

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option {
	return func(c *sqliteConfig) {
		if ms > 0 {
			c.busyTimeout = ms
		}
	}
}

// WithJournalMode sets PRAGMA journal_mode. Default: "WAL".
func WithJournalMode(mode string) Option {
	return func(c *sqliteConfig) {
		if mode != "" {
			c.journalMode = mode
		}
	}
}
