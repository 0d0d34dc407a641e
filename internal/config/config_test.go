package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shipq/semsql/dialect"
)

func TestLoad_FileNotFound(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()

	_, err := Load(dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "semsql.ini not found") {
		t.Errorf("error should mention 'semsql.ini not found', got: %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Timezone != "UTC" {
		t.Errorf("expected default timezone 'UTC', got %q", cfg.Timezone)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected default log_format 'json', got %q", cfg.LogFormat)
	}
	if cfg.Dialect != "" {
		t.Errorf("expected no dialect, got %q", cfg.Dialect)
	}
}

func TestLoad_SemsqlSection(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", `
[semsql]
dialect = PostgreSQL
timezone = America/Chicago
database_url = postgres://localhost/app
log_format = pretty   ; json | pretty
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Dialect != "postgres" {
		t.Errorf("expected dialect 'postgres', got %q", cfg.Dialect)
	}
	if cfg.Timezone != "America/Chicago" {
		t.Errorf("expected timezone 'America/Chicago', got %q", cfg.Timezone)
	}
	if cfg.DatabaseURL != "postgres://localhost/app" {
		t.Errorf("unexpected database_url %q", cfg.DatabaseURL)
	}
	if cfg.LogFormat != "pretty" {
		t.Errorf("expected log_format 'pretty', got %q", cfg.LogFormat)
	}
}

func TestLoad_TimezoneNone(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "[semsql]\ndialect = sqlite\ntimezone = none\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Timezone != "" {
		t.Errorf("expected timezone conversion disabled, got %q", cfg.Timezone)
	}
}

func TestLoad_DialectInferredFromURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "[semsql]\ndatabase_url = mysql://root@localhost:3306/app\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dialect != "mysql" {
		t.Errorf("expected inferred dialect 'mysql', got %q", cfg.Dialect)
	}
}

func TestLoad_DialectValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown dialect", "[semsql]\ndialect = oracle\n", "invalid semsql.dialect"},
		{"url disagrees", "[semsql]\ndialect = sqlite\ndatabase_url = postgres://localhost/app\n", "does not match"},
		{"unknown template section", "[templates.oracle]\nparams.param = :x\n", "[templates.oracle]"},
		{"bad log format", "[semsql]\nlog_format = xml\n", "invalid semsql.log_format"},
		{"uninferrable url", "[semsql]\ndatabase_url = mongodb://localhost/db\n", "cannot infer dialect"},
		{"syntax error", "[semsql\n", "line 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			dir := t.TempDir()
			writeFile(t, dir, "semsql.ini", tt.content)

			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_InvalidDialect_ListsSupported(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "[semsql]\ndialect = postgress\n")

	_, err := Load(dir)
	if !errors.Is(err, dialect.ErrUnknownDialect) {
		t.Fatalf("expected ErrUnknownDialect, got %v", err)
	}
	for _, name := range dialect.Names() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should list %q, got: %v", name, err)
		}
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	for _, tz := range []string{"UTC$0$", `Europe/Berlin\`, "America/New York"} {
		t.Run(tz, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			dir := t.TempDir()
			writeFile(t, dir, "semsql.ini", "[semsql]\ndialect = mysql\ntimezone = "+tz+"\n")

			_, err := Load(dir)
			if !errors.Is(err, dialect.ErrInvalidTimezone) {
				t.Fatalf("expected ErrInvalidTimezone, got %v", err)
			}
			if !strings.Contains(err.Error(), "semsql.timezone") {
				t.Errorf("error should name the key, got: %v", err)
			}
		})
	}
}

func TestLoad_TemplateSections(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", `
[semsql]
dialect = postgres

[templates.postgres]
expressions.timestamp_literal = {{ .value }}::timestamp
functions.MEDIAN = percentile_cont(0.5) WITHIN GROUP (ORDER BY {{ .args_concat }})

[templates.pg]
functions.MODE = mode() WITHIN GROUP (ORDER BY {{ .args_concat }})
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overrides := cfg.Templates["postgres"]
	if len(overrides) != 3 {
		t.Fatalf("expected aliases merged into 3 postgres overrides, got %v", overrides)
	}
	if overrides["functions.MEDIAN"] == "" {
		t.Error("functions.MEDIAN key spelling not preserved")
	}

	a, err := cfg.Adapter()
	if err != nil {
		t.Fatalf("Adapter failed: %v", err)
	}
	lit, err := dialect.Render(a.Templates(), "expressions.timestamp_literal", map[string]any{"value": "'2024-01-01'"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if lit != "'2024-01-01'::timestamp" {
		t.Errorf("override not applied: %q", lit)
	}
}

func TestAdapter_MisalignedOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "[semsql]\ndialect = postgres\n[templates.postgres]\nparams.param = ?\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cfg.Adapter(); !errors.Is(err, dialect.ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
}

func TestAdapter_NoDialect(t *testing.T) {
	cfg := defaultConfig()
	if _, err := cfg.Adapter(); err == nil {
		t.Fatal("expected error without a dialect")
	}
}

func TestLoad_DatabaseURLEnvFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:///tmp/app.db")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "[semsql]\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "sqlite:///tmp/app.db" {
		t.Errorf("expected DATABASE_URL fallback, got %q", cfg.DatabaseURL)
	}
	if cfg.Dialect != "sqlite" {
		t.Errorf("expected dialect inferred from env URL, got %q", cfg.Dialect)
	}
}

func TestLoad_ConfigOverridesEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "[semsql]\ndatabase_url = postgres://file/db\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://file/db" {
		t.Errorf("expected file URL to win, got %q", cfg.DatabaseURL)
	}
}

func TestLoad_DotEnvFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "[semsql]\n")
	writeFile(t, dir, ".env", "# local settings\nDATABASE_URL=\"mysql://root@localhost:3306/app\"\nOTHER=1\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "mysql://root@localhost:3306/app" {
		t.Errorf("expected .env fallback, got %q", cfg.DatabaseURL)
	}
	if cfg.Dialect != "mysql" {
		t.Errorf("expected dialect inferred from .env URL, got %q", cfg.Dialect)
	}
	if os.Getenv("OTHER") != "" {
		t.Error(".env must not modify the process environment")
	}
}

func TestLoad_EnvBeatsDotEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "[semsql]\n")
	writeFile(t, dir, ".env", "DATABASE_URL=mysql://root@localhost/app\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Errorf("expected process env to win, got %q", cfg.DatabaseURL)
	}
}

func TestLoad_ConfigDir(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	writeFile(t, dir, "semsql.ini", "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("expected ConfigDir %q, got %q", dir, cfg.ConfigDir)
	}
}

func TestExists(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()

	exists, err := Exists(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected semsql.ini to not exist")
	}

	writeFile(t, dir, "semsql.ini", "")

	exists, err = Exists(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected semsql.ini to exist")
	}
}

func TestWrite(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()

	path, err := Write(dir, "sqlite3", "sqlite:///tmp/app.db")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if path != filepath.Join(dir, ConfigFilename) {
		t.Errorf("unexpected path %q", path)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after Write failed: %v", err)
	}
	if cfg.Dialect != "sqlite" || cfg.DatabaseURL != "sqlite:///tmp/app.db" {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := Write(dir, "sqlite", ""); err == nil {
		t.Error("expected Write to refuse overwriting")
	}
}

// Helper functions

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}
