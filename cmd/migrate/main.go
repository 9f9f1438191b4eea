package main

import (
	"context"
	"flag"
	"log"

	"librarydesk/internal/config"
	"librarydesk/internal/platform/database"
	"librarydesk/internal/platform/migrations"
	"librarydesk/internal/store"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, status")
	flag.Parse()

	cmd, err := parseCommand(*command)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	db := st.SQLDB()
	if st.Driver == config.DriverPostgres {
		defer db.Close()
	}

	if err := migrations.Run(db, st.Driver, cmd); err != nil {
		log.Fatalf("Failed to run migrations against %s: %v", database.RedactDSN(cfg.DBDSN), err)
	}
	log.Printf("Migration command %q finished (%s)", cmd, st.Driver)
}
