package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain refuses to run the config tests against a non-test environment,
// since Load reads .env.<GO_ENV> and ConnectDatabase may migrate whatever
// DATABASE_URL points at. An unset GO_ENV defaults to test.
func TestMain(m *testing.M) {
	switch env := os.Getenv("GO_ENV"); env {
	case "":
		os.Setenv("GO_ENV", "test")
	case "test":
	default:
		fmt.Fprintf(os.Stderr, "config tests need GO_ENV=test, got %q; run: GO_ENV=test go test ./...\n", env)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
