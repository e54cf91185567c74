// Package conf
package conf

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"

	_ "github.com/lib/pq"
)

// Config holds test database connection and metadata
type Config struct {
	Name    string
	DB      *sql.DB
	ConnStr string
	AdminDB *sql.DB
}

const defaultAdminConnStr = "host=localhost port=5432 user=postgres password=postgres dbname=postgres sslmode=disable"

// NewTestConfig creates a new database with a random name and applies schema.
// The admin connection comes from TEST_DB_ADMIN_CONN_STR when set. The test is
// skipped when Postgres is not reachable.
func NewTestConfig(t *testing.T, schema string) (*Config, func()) {
	t.Helper()

	adminConnStr := os.Getenv("TEST_DB_ADMIN_CONN_STR")
	if adminConnStr == "" {
		adminConnStr = defaultAdminConnStr
	}

	adminDB, err := sql.Open("postgres", adminConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	if err := adminDB.Ping(); err != nil {
		adminDB.Close()
		t.Skipf("Skipping test: PostgreSQL is not running or not accessible: %v", err)
		return nil, func() {}
	}

	// Random name to avoid conflicts between parallel runs
	dbName := fmt.Sprintf("signal_trader_test_%d", rand.Int31())
	if _, err := adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		adminDB.Close()
		t.Fatalf("Failed to create test database: %v", err)
	}

	dbConnStr := withDBName(adminConnStr, dbName)
	db, err := sql.Open("postgres", dbConnStr)
	if err != nil {
		adminDB.Close()
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	for stmt := range strings.SplitSeq(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			adminDB.Close()
			t.Fatalf("Failed to apply schema statement: %s\nError: %v", stmt, err)
		}
	}

	cleanup := func() {
		db.Close()
		if _, err := adminDB.Exec(fmt.Sprintf("DROP DATABASE %s WITH (FORCE)", dbName)); err != nil {
			t.Logf("Warning: Failed to drop test database %s: %v", dbName, err)
		}
		adminDB.Close()
	}

	return &Config{Name: dbName, DB: db, ConnStr: dbConnStr, AdminDB: adminDB}, cleanup
}

// withDBName swaps the dbname key of a key=value connection string.
func withDBName(connStr, dbName string) string {
	fields := strings.Fields(connStr)
	replaced := false
	for i, f := range fields {
		if strings.HasPrefix(f, "dbname=") {
			fields[i] = "dbname=" + dbName
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, "dbname="+dbName)
	}
	return strings.Join(fields, " ")
}
