// Package migrations embeds the schema for both supported stores and applies
// it with goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// goose keeps its base FS and dialect in package globals.
var mu sync.Mutex

type Command string

const (
	CommandUp     Command = "up"
	CommandDown   Command = "down"
	CommandStatus Command = "status"
)

// Dir returns the embedded directory for driver ("postgres" or "sqlite").
func Dir(driver string) (string, error) {
	switch driver {
	case "postgres", "sqlite":
		return driver, nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

func gooseDialect(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return driver
}

// Run executes cmd against db using the embedded migrations for driver.
func Run(db *sql.DB, driver string, cmd Command) error {
	dir, err := Dir(driver)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(gooseDialect(driver)); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	switch cmd {
	case CommandUp:
		err = goose.Up(db, dir)
	case CommandDown:
		err = goose.Down(db, dir)
	case CommandStatus:
		err = goose.Status(db, dir)
	default:
		return fmt.Errorf("unknown migration command %q", cmd)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cmd, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(db *sql.DB, driver string) error {
	return Run(db, driver, CommandUp)
}

// Quiet silences goose's progress output, for tests.
func Quiet() {
	goose.SetLogger(goose.NopLogger())
}
