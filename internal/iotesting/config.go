// Package iotesting provides shared helpers for integration tests.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"os"
	"testing"

	"github.com/scholdb/scholdb/internal/ioconfig"
	"github.com/scholdb/scholdb/pkg/config"
)

// TestDatabaseName is the database used by all integration tests, so a
// test run can never touch a production database.
const TestDatabaseName = "scholdb_test"

// GetTestConfig loads the standard configuration (file, env, defaults)
// and overrides the database name to TestDatabaseName.
//
// Usage in integration tests:
//
//	func TestSomething(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("Skipping integration test")
//	    }
//	    cfg := iotesting.GetTestConfig()
//	    // ... use cfg for database operations
//	}
func GetTestConfig() *config.Config {
	var cfg *config.Config
	result, err := ioconfig.Load("")
	if err != nil {
		cfg = config.New()
		cfg.HomeDir = ioconfig.DefaultHomeDir()
	} else {
		cfg = result.Config
	}

	cfg.Database.Database = TestDatabaseName
	return cfg
}

// SetupTempHomeDir points the configuration home at a temporary
// directory, so tests never write history or log files into the real
// ~/.local/share/scholdb. Cleanup is automatic via t.Cleanup.
//
// Returns the absolute path of the temporary home.
func SetupTempHomeDir(t *testing.T, cfg *config.Config) string {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "scholdb-test-home-*")
	if err != nil {
		t.Fatalf("Failed to create temp home dir: %v", err)
	}

	cfg.HomeDir = tempDir
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})
	return tempDir
}
