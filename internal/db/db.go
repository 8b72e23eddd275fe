package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// connectAttempts covers compose startups where Postgres accepts
// connections a few seconds after the app container comes up.
const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

type DB struct {
	*sql.DB
}

// Connect opens the pool and pings until Postgres answers, retrying for
// roughly connectAttempts*connectBackoff before giving up.
func Connect(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var pingErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingErr = db.Ping()
		if pingErr == nil {
			break
		}
		log.Printf("DB: not ready (attempt %d/%d): %v", attempt, connectAttempts, pingErr)
		time.Sleep(connectBackoff)
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &DB{db}, nil
}
