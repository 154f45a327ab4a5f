// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"database/sql"
	_ "embed"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed petstore.sql
var petstoreSQL string

// PetstoreSQL returns the DDL and seed rows of the petstore fixture. The
// tables match internal/schema/testdata/petstore.
func PetstoreSQL() string {
	return petstoreSQL
}

// Petstore row counts after seeding.
const (
	PersonCount = 3
	PetCount    = 3
	ToyCount    = 2
)

// OpenPetstore opens a private in-memory SQLite database seeded with the
// petstore fixture. The database is closed when the test ends.
//
// The pool is limited to one connection: every connection to ":memory:" is a
// separate database.
func OpenPetstore(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("execute %q: %v", pragma, err)
		}
	}

	if _, err := db.Exec(petstoreSQL); err != nil {
		t.Fatalf("seed petstore: %v", err)
	}
	return db
}
