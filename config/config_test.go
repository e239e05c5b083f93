package config

import "testing"

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "db.internal",
		PostgresPort:     "5433",
		PostgresUser:     "analyst",
		PostgresPassword: "secret",
		PostgresDB:       "bank_reviews",
		PostgresSSLMode:  "require",
	}

	want := "host=db.internal port=5433 user=analyst password=secret dbname=bank_reviews sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("BRA_TEST_STR", "value")
	t.Setenv("BRA_TEST_INT", "42")
	t.Setenv("BRA_TEST_BAD_INT", "forty-two")

	if got := getEnv("BRA_TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv set: got %q", got)
	}
	if got := getEnv("BRA_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv unset: got %q", got)
	}
	if got := getEnvInt("BRA_TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt set: got %d", got)
	}
	if got := getEnvInt("BRA_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt malformed: got %d", got)
	}
	if got := getEnvInt("BRA_TEST_UNSET", 7); got != 7 {
		t.Errorf("getEnvInt unset: got %d", got)
	}
}
