package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Standalone migration runner for deployments that do not auto-migrate
// on boot.
func main() {
	var (
		dbPath         = flag.String("db", "./data/pulse.db", "path to the sqlite database")
		migrationsPath = flag.String("migrations", "./migrations", "path to the migrations directory")
		down           = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	db, err := sqlx.Open("sqlite3", *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create migration driver: %v\n", err)
		os.Exit(1)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", *migrationsPath), "sqlite3", driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create migration instance: %v\n", err)
		os.Exit(1)
	}

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && err != migrate.ErrNoChange {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("migrations complete")
}
