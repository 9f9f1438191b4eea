package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"librarydesk/internal/auth"
	"librarydesk/internal/book"
	"librarydesk/internal/config"
	"librarydesk/internal/member"
	"librarydesk/internal/platform/apperr"
	"librarydesk/internal/platform/logging"
	"librarydesk/internal/platform/migrations"
	"librarydesk/internal/store"
)

func main() {
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password for the seeded admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := logging.Must(cfg.Env)
	defer logger.Sync()

	if err := run(context.Background(), cfg, logger, *adminPassword); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, adminPassword string) error {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if st.Driver == config.DriverSQLite {
		if err := migrations.Up(st.SQLDB(), st.Driver); err != nil {
			return err
		}
	}
	return seed(ctx, st, logger, adminPassword)
}

func pages(n int) *int { return &n }

var demoMembers = []member.Member{
	{FullName: "Ada Lovelace", BirthDate: "1815-12-10", Phone: "555-0100", Email: "ada@example.com"},
	{FullName: "Alan Turing", BirthDate: "1912-06-23", Phone: "555-0101", Email: "alan@example.com"},
	{FullName: "Grace Hopper", BirthDate: "1906-12-09", Phone: "555-0102", Email: "grace@example.com"},
	{FullName: "Katherine Johnson", Phone: "555-0103", Email: "katherine@example.com"},
}

var demoBooks = []book.Book{
	{Title: "Dune", Author: "Frank Herbert", Publisher: "Chilton", EditionDate: "1965-08-01", Language: "en", PageCount: pages(412)},
	{Title: "Emma", Author: "Jane Austen", Publisher: "John Murray", EditionDate: "1815-12-23", Language: "en", PageCount: pages(474)},
	{Title: "Kindred", Author: "Octavia E. Butler", Publisher: "Doubleday", EditionDate: "1979-06-01", Language: "en", PageCount: pages(264)},
	{Title: "Cien años de soledad", Author: "Gabriel García Márquez", Publisher: "Sudamericana", EditionDate: "1967-05-30", Language: "es", PageCount: pages(471)},
	{Title: "Der Prozess", Author: "Franz Kafka", Publisher: "Die Schmiede", EditionDate: "1925-04-26", Language: "de", PageCount: pages(260)},
	{Title: "Ulysses", Author: "James Joyce", Publisher: "Shakespeare and Company", Language: "en", State: book.StateUnderRepair},
}

func seed(ctx context.Context, st *store.Store, logger *zap.Logger, adminPassword string) error {
	for i := range demoMembers {
		m := demoMembers[i]
		err := st.Members.Insert(ctx, &m)
		if errors.Is(err, member.ErrDuplicateEmail) {
			logger.Info("member already seeded", zap.String("email", m.Email))
			continue
		}
		if err != nil {
			return fmt.Errorf("seed member %s: %w", m.Email, err)
		}
	}

	existing, err := st.Books.List(ctx, book.Filter{})
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	if len(existing) == 0 {
		for i := range demoBooks {
			b := demoBooks[i]
			if err := st.Books.Insert(ctx, &b); err != nil {
				return fmt.Errorf("seed book %q: %w", b.Title, err)
			}
		}
		logger.Info("books seeded", zap.Int("count", len(demoBooks)))
	}

	if adminPassword == "" {
		logger.Info("no admin password given, skipping admin account")
		return nil
	}
	_, err = auth.NewService(st.Users, logger).AddUser(ctx, "admin", adminPassword, auth.RoleAdmin)
	if apperr.KindOf(err) == apperr.KindConflict {
		logger.Info("admin already seeded")
		return nil
	}
	return err
}
