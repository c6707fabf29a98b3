package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"grepbot/internal/grep"
	"grepbot/internal/storage"
	"grepbot/migrations"
)

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/grepbot.db"), "path to sqlite database")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  up             Migrate to the latest version")
		fmt.Fprintln(os.Stderr, "  up-one         Migrate one version up")
		fmt.Fprintln(os.Stderr, "  down           Roll back one version")
		fmt.Fprintln(os.Stderr, "  status         Show migration status")
		fmt.Fprintln(os.Stderr, "  version        Show current version")
		fmt.Fprintln(os.Stderr, "  reset          Roll back all migrations")
		fmt.Fprintln(os.Stderr, "  import <file>  Replace all greps with a JSON file of [pattern, user_id] pairs")
		os.Exit(1)
	}

	cmd := args[0]
	if cmd == "import" {
		if len(args) != 2 {
			log.Fatal("usage: migrate import <file>")
		}
		if err := importGreps(*dbPath, args[1]); err != nil {
			log.Fatalf("import: %v", err)
		}
		return
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Setup(); err != nil {
		log.Fatalf("setup migrations: %v", err)
	}

	switch cmd {
	case "up":
		err = goose.Up(db, ".")
	case "up-one":
		err = goose.UpByOne(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	case "reset":
		err = goose.Reset(db, ".")
	default:
		log.Fatalf("unknown command: %s", cmd)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// importGreps loads greps saved in the legacy JSON format. Every pattern is
// compiled before anything is written.
func importGreps(dbPath, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	greps, err := grep.UnmarshalGreps(data)
	if err != nil {
		return err
	}
	loaded, err := grep.NewStore(greps...)
	if err != nil {
		return err
	}

	store, err := storage.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.ReplaceGreps(context.Background(), loaded.Snapshot()); err != nil {
		return err
	}
	log.Printf("imported %d greps into %s", loaded.Len(), dbPath)
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
