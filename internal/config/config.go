// Package config provides configuration loading from semsql.ini.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shipq/semsql/dburl"
	"github.com/shipq/semsql/dialect"
	"github.com/shipq/semsql/inifile"
	"github.com/shipq/semsql/logging"
)

// ConfigFilename is the name of the config file.
const ConfigFilename = "semsql.ini"

// EnvFilename is read for DATABASE_URL when neither semsql.ini nor the
// process environment sets one.
const EnvFilename = ".env"

// templatesPrefix starts the per-dialect template override sections.
const templatesPrefix = "templates."

// ErrNotFound is returned by Load when semsql.ini is missing.
var ErrNotFound = errors.New(ConfigFilename + " not found")

// Config holds the complete configuration from semsql.ini.
type Config struct {
	// ConfigDir is the directory containing semsql.ini.
	ConfigDir string

	// Dialect is the canonical registry name. When unset in the file it is
	// inferred from DatabaseURL.
	Dialect     string
	Timezone    string
	DatabaseURL string
	LogFormat   string

	// Templates holds [templates.<dialect>] overrides keyed by dialect.
	Templates map[string]map[string]string
}

// Load reads semsql.ini from the given directory (or CWD if empty).
// Returns an error wrapping ErrNotFound if semsql.ini is not found.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	iniPath := filepath.Join(dir, ConfigFilename)
	if _, err := os.Stat(iniPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w in %s\n"+
			"  Hint: Run 'semsql init' to create one, or pass the dialect on the command line",
			ErrNotFound, dir)
	}

	f, err := inifile.ParseFile(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFilename, err)
	}

	cfg := defaultConfig()
	cfg.ConfigDir = dir

	if err := parseSemsqlSection(f, cfg); err != nil {
		return nil, err
	}
	if err := parseTemplateSections(f, cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		u, err := databaseURLFromEnv(dir)
		if err != nil {
			return nil, err
		}
		cfg.DatabaseURL = u
	}

	if err := cfg.resolveDialect(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// databaseURLFromEnv returns DATABASE_URL from the process environment, or
// from a .env file next to semsql.ini. The process environment is not
// modified.
func databaseURLFromEnv(dir string) (string, error) {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u, nil
	}
	envPath := filepath.Join(dir, EnvFilename)
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return "", nil
	}
	env, err := godotenv.Read(envPath)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", envPath, err)
	}
	return env["DATABASE_URL"], nil
}

func defaultConfig() *Config {
	return &Config{
		Timezone:  "UTC",
		LogFormat: logging.FormatJSON,
		Templates: make(map[string]map[string]string),
	}
}

// parseSemsqlSection parses the [semsql] section from the INI file.
func parseSemsqlSection(f *inifile.File, cfg *Config) error {
	if v := f.Get("semsql", "dialect"); v != "" {
		d, err := normalizeDialect(v, "semsql.dialect")
		if err != nil {
			return err
		}
		cfg.Dialect = d
	}
	// "none" leaves time dimensions without an explicit zone unconverted.
	if v := f.Get("semsql", "timezone"); strings.EqualFold(v, "none") {
		cfg.Timezone = ""
	} else if v != "" {
		if err := dialect.ValidateTimezone(v); err != nil {
			return fmt.Errorf("%s: invalid semsql.timezone: %w", ConfigFilename, err)
		}
		cfg.Timezone = v
	}
	if v := f.Get("semsql", "database_url"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := f.Get("semsql", "log_format"); v != "" {
		switch v = strings.ToLower(v); v {
		case logging.FormatJSON, logging.FormatPretty:
			cfg.LogFormat = v
		default:
			return fmt.Errorf("%s: invalid semsql.log_format %q (expected %s or %s)",
				ConfigFilename, v, logging.FormatJSON, logging.FormatPretty)
		}
	}
	return nil
}

// parseTemplateSections parses [templates.*] sections for per-dialect overrides.
func parseTemplateSections(f *inifile.File, cfg *Config) error {
	for _, section := range f.SectionsWithPrefix(templatesPrefix) {
		name := strings.TrimPrefix(section.Name, templatesPrefix)
		d, err := normalizeDialect(name, "["+section.Name+"]")
		if err != nil {
			return err
		}
		overrides := cfg.Templates[d]
		if overrides == nil {
			overrides = make(map[string]string)
			cfg.Templates[d] = overrides
		}
		for k, v := range section.Map() {
			overrides[k] = v
		}
	}
	return nil
}

// resolveDialect infers the dialect from the database URL when unset, and
// rejects a URL that disagrees with an explicit dialect.
func (c *Config) resolveDialect() error {
	if c.DatabaseURL == "" {
		return nil
	}
	inferred, err := dburl.InferDialectFromDBUrl(c.DatabaseURL)
	if err != nil {
		if c.Dialect == "" {
			return fmt.Errorf("%s: cannot infer dialect from database_url: %w", ConfigFilename, err)
		}
		return nil
	}
	if c.Dialect == "" {
		c.Dialect = inferred
		return nil
	}
	if c.Dialect != inferred {
		return fmt.Errorf("%s: semsql.dialect %q does not match database_url dialect %q", ConfigFilename, c.Dialect, inferred)
	}
	return nil
}

// normalizeDialect resolves aliases and validates against the registry.
func normalizeDialect(s, key string) (string, error) {
	a, err := dialect.Lookup(s)
	if err != nil {
		return "", fmt.Errorf("%s: invalid %s value %q\n"+
			"  Supported dialects: %s\n"+
			"  Hint: Check for typos or extra spaces: %w",
			ConfigFilename, key, s, strings.Join(dialect.Names(), ", "), err)
	}
	return a.Name(), nil
}

// Adapter returns the configured dialect adapter with its template
// overrides applied.
func (c *Config) Adapter() (dialect.Adapter, error) {
	if c.Dialect == "" {
		return nil, fmt.Errorf("%s: no dialect configured and none could be inferred from database_url", ConfigFilename)
	}
	return c.AdapterFor(c.Dialect)
}

// AdapterFor returns the named adapter with any [templates.<name>]
// overrides from the config applied.
func (c *Config) AdapterFor(name string) (dialect.Adapter, error) {
	a, err := dialect.Lookup(name)
	if err != nil {
		return nil, err
	}
	return dialect.WithTemplateOverrides(a, c.Templates[a.Name()])
}

// Exists checks if semsql.ini exists in the given directory.
func Exists(dir string) (bool, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return false, err
		}
	}

	iniPath := filepath.Join(dir, ConfigFilename)
	_, err := os.Stat(iniPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Write creates semsql.ini in dir for the given dialect.
// It refuses to overwrite an existing file.
func Write(dir, dialectName, databaseURL string) (string, error) {
	d, err := normalizeDialect(dialectName, "dialect")
	if err != nil {
		return "", err
	}

	iniPath := filepath.Join(dir, ConfigFilename)
	exists, err := Exists(dir)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%s already exists in %s", ConfigFilename, dir)
	}

	f := &inifile.File{}
	f.Set("semsql", "dialect", d)
	f.Set("semsql", "timezone", "UTC")
	if databaseURL != "" {
		f.Set("semsql", "database_url", databaseURL)
	}
	f.Set("semsql", "log_format", logging.FormatJSON)

	if err := f.WriteFile(iniPath); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", ConfigFilename, err)
	}
	return iniPath, nil
}
