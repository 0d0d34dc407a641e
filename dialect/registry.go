package dialect

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// aliases maps alternate spellings to canonical dialect names.
var aliases = map[string]string{
	"postgresql": "postgres",
	"pg":         "postgres",
	"sqlite3":    "sqlite",
}

// Registry maps dialect names to adapters.
//
// Register during process initialization only. After that the registry is
// read-only and Lookup may be called from any number of goroutines.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds a under a.Name(). The templates are re-validated so a broken
// adapter is rejected at startup rather than at render time.
func (r *Registry) Register(a Adapter) error {
	name := normalizeName(a.Name())
	if _, ok := r.adapters[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDialect, name)
	}
	t := a.Templates()
	if err := t.Validate(); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	if err := checkParamAlignment(name, t, a.ParamPlaceholder); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	r.adapters[name] = a
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(a Adapter) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Lookup returns the adapter registered under name or one of its aliases.
func (r *Registry) Lookup(name string) (Adapter, error) {
	a, ok := r.adapters[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownDialect, name, strings.Join(r.Names(), ", "))
	}
	return a, nil
}

// Names returns the registered dialect names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.adapters))
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// =============================================================================
// Built-in Adapters
// =============================================================================

var (
	// Postgres is the singleton PostgreSQL adapter.
	Postgres Adapter = must(NewPostgres())

	// MySQL is the singleton MySQL adapter.
	MySQL Adapter = must(NewMySQL())

	// SQLite is the singleton SQLite adapter.
	SQLite Adapter = must(NewSQLite())

	// BigQuery is the singleton BigQuery adapter.
	BigQuery Adapter = must(NewBigQuery())

	// Snowflake is the singleton Snowflake adapter.
	Snowflake Adapter = must(NewSnowflake())
)

// Default holds the built-in adapters.
var Default = NewRegistry()

func init() {
	for _, a := range []Adapter{Postgres, MySQL, SQLite, BigQuery, Snowflake} {
		Default.MustRegister(a)
	}
}

// Lookup finds name in the Default registry.
func Lookup(name string) (Adapter, error) {
	return Default.Lookup(name)
}

// Names lists the dialects in the Default registry.
func Names() []string {
	return Default.Names()
}
