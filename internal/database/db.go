// Package database sets up/opens the program database.
package database

import (
	"database/sql"
	"embed"
	"fmt"

	"ytbridge/internal/domain/logger"

	_ "github.com/mattn/go-sqlite3"
)

const (
	dbDriver = "sqlite3"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

const (
	binariesSQL = "sql/binaries.sql"
	programSQL  = "sql/program.sql"
)

// Database wraps the program's sqlite handle.
type Database struct {
	DB *sql.DB
}

// InitDB opens (creating if needed) the database at path and initializes its tables.
func InitDB(path string) (d *Database, err error) {
	d = new(Database)
	d.DB, err = sql.Open(dbDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at path %q: %w", path, err)
	}

	// A single connection keeps sqlite writes from contending with each other.
	d.DB.SetMaxOpenConns(1)

	if err := d.initTables(); err != nil {
		d.DB.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return d, nil
}

// Close closes the underlying database handle.
func (d *Database) Close() error {
	return d.DB.Close()
}

// initTables initializes the SQL tables.
func (d *Database) initTables() (err error) {
	tx, err := d.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				logger.Pl.Error().Err(rollbackErr).Msg("transaction rollback failed")
			}
		}
	}()

	if err = executeSQLFile(tx, programSQL, "program table"); err != nil {
		return err
	}
	if err = executeSQLFile(tx, binariesSQL, "binaries table"); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// executeSQLFile executes the SQL file stored in memory from go:embed.
func executeSQLFile(tx *sql.Tx, filename, tableName string) error {
	data, err := sqlFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read SQL file %s: %w", filename, err)
	}
	if _, err := tx.Exec(string(data)); err != nil {
		return fmt.Errorf("failed to execute SQL for %s: %w", tableName, err)
	}
	return nil
}
