package database

import (
	"database/sql"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Manager handles the history database connection. Postgres is preferred;
// when it is unreachable the manager falls back to a local SQLite file so a
// session's history is never silently lost.
type Manager struct {
	DB      *gorm.DB
	SqlDB   *sql.DB
	IsLocal bool
	Logger  zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect establishes a database connection, falling back to SQLite if
// Postgres fails or does not answer a ping.
func (m *Manager) Connect() error {
	var err error

	m.DB, err = m.openPostgres()
	if err != nil {
		m.Logger.Warn().Err(err).Msg("Failed to connect to Postgres, falling back to SQLite")
		return m.fallbackToSqlite()
	}

	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("accessing sql interface: %w", err)
	}
	if err = m.SqlDB.Ping(); err != nil {
		m.Logger.Warn().Err(err).Msg("Postgres ping failed, falling back to SQLite")
		return m.fallbackToSqlite()
	}

	m.SqlDB.SetMaxOpenConns(10)
	m.Logger.Info().Msg("Connected to Postgres history database")
	return nil
}

func (m *Manager) fallbackToSqlite() error {
	var err error
	m.IsLocal = true
	m.DB, err = m.openSqlite(viper.GetString("history.sqlitePath"))
	if err != nil {
		return fmt.Errorf("opening local SQLite DB: %w", err)
	}
	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("accessing sql interface: %w", err)
	}
	return nil
}

func (m *Manager) openPostgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("history.db.host"),
		viper.GetString("history.db.port"),
		viper.GetString("history.db.username"),
		viper.GetString("history.db.password"),
		viper.GetString("history.db.database"),
	)

	m.Logger.Debug().Str("host", viper.GetString("history.db.host")).Msg("Connecting to Postgres")

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// openSqlite opens a SQLite database. An empty path means in-memory.
func (m *Manager) openSqlite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("setting PRAGMA: %w", err)
		}
	}

	m.Logger.Info().Str("path", path).Msg("Using local SQLite history database")
	return db, nil
}

// OpenSqliteStandalone opens a SQLite database without a manager; tests and
// the export CLI use this directly.
func OpenSqliteStandalone(path string) (*gorm.DB, error) {
	m := NewManager(zerolog.Nop())
	return m.openSqlite(path)
}
