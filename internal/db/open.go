package db

import (
	"database/sql"
	"fmt"
)

// Open opens the sqlite database at path in WAL mode with a busy timeout
// and applies the schema.
func Open(path string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := InitSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return sqlDB, nil
}
