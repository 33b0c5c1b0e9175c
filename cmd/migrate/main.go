package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"geminicli2api-go/internal/migrations"

	_ "github.com/lib/pq"
)

func main() {
	dsn := flag.String("dsn", "", "PostgreSQL connection string")
	action := flag.String("action", "up", "migration action: up, down, or version")
	steps := flag.Int("steps", 1, "steps to roll back when action=down")
	timeout := flag.Duration("timeout", 10*time.Second, "database connect timeout")
	flag.Parse()

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: -dsn")
		os.Exit(2)
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("database unreachable")
	}

	switch *action {
	case "up":
		if err := migrations.Apply(db); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}
		reportState(db, "schema up to date")
	case "down":
		if err := migrations.Rollback(db, *steps); err != nil {
			log.WithError(err).Fatal("roll back migrations")
		}
		log.WithField("steps", *steps).Info("rolled back")
	case "version":
		reportState(db, "schema state")
	default:
		fmt.Fprintf(os.Stderr, "unknown action %q (expected up, down, version)\n", *action)
		os.Exit(2)
	}
}

func reportState(db *sql.DB, msg string) {
	version, dirty, err := migrations.State(db)
	if err != nil {
		log.WithError(err).Fatal("read schema state")
	}
	log.WithFields(log.Fields{"version": version, "dirty": dirty}).Info(msg)
}
