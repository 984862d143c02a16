package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"stockservice/internal/log"
)

// OpenDB opens the SQLite database at dsn and brings its schema up to date.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	n, err := Migrate(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if n > 0 {
		log.Info(nil, "db.migrate", map[string]any{"applied": n})
	}
	return db, nil
}

// Open opens the database without touching the schema.
func Open(dsn string) (*sqlx.DB, error) {
	memory := isMemory(dsn)
	if !memory && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
