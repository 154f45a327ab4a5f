// Package dialect defines the facts the compiler needs about a target SQL
// grammar, and the built-in adapters for it.
//
// A Dialect is configuration, not tree state. Built-in dialects are created
// at package init and registered in a read-only registry; they are safe for
// concurrent use without synchronization.
package dialect

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Capability is an optional construct a dialect may or may not render.
type Capability string

const (
	// Returning is a RETURNING clause on INSERT / UPDATE / DELETE.
	Returning Capability = "returning"

	// RightJoin is RIGHT JOIN.
	RightJoin Capability = "right_join"

	// FullJoin is FULL JOIN.
	FullJoin Capability = "full_join"

	// ILike is the case-insensitive ILIKE operator.
	ILike Capability = "ilike"

	// UnconditionedInnerJoin is an INNER JOIN without ON.
	UnconditionedInnerJoin Capability = "unconditioned_inner_join"

	// UnconditionedOuterJoin is a LEFT / RIGHT / FULL JOIN without ON.
	UnconditionedOuterJoin Capability = "unconditioned_outer_join"
)

// Capabilities lists every capability in a stable order.
var Capabilities = []Capability{
	Returning,
	RightJoin,
	FullJoin,
	ILike,
	UnconditionedInnerJoin,
	UnconditionedOuterJoin,
}

// Dialect is the contract the compiler consults at every identifier and
// value emission point.
type Dialect interface {
	// Name returns the registry name, e.g. "postgres".
	Name() string

	// QuoteIdentifier renders one identifier part (a table, column, schema or
	// alias name) safely for this dialect.
	QuoteIdentifier(name string) string

	// Placeholder returns the token for the parameter at 1-based index.
	Placeholder(index int) string

	// Supports reports whether the dialect can render c.
	Supports(c Capability) bool
}

// PlaceholderStyle selects how parameter slots are rendered.
type PlaceholderStyle int

const (
	// QuestionMark renders every slot as "?".
	QuestionMark PlaceholderStyle = iota

	// DollarNumbered renders slots as "$1", "$2", ...
	DollarNumbered
)

// QuoteStyle selects when identifiers are quoted.
type QuoteStyle int

const (
	// QuoteAlways quotes every identifier.
	QuoteAlways QuoteStyle = iota

	// QuoteWhenNeeded leaves plain identifiers ([A-Za-z_][A-Za-z0-9_]*) bare
	// and quotes everything else.
	QuoteWhenNeeded
)

// Config describes a table-driven dialect. Most dialects differ only in these
// facts, so the built-ins are all instances of Config.
type Config struct {
	DialectName  string
	Quote        string // opening and closing quote character
	QuoteStyle   QuoteStyle
	Placeholders PlaceholderStyle
	Capabilities []Capability
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Name implements Dialect.
func (c *Config) Name() string { return c.DialectName }

// QuoteIdentifier implements Dialect.
//
// The name is NFC-normalized first so that canonically equivalent spellings
// compile to identical SQL. An embedded quote character is escaped by
// doubling it.
func (c *Config) QuoteIdentifier(name string) string {
	name = norm.NFC.String(name)
	if c.QuoteStyle == QuoteWhenNeeded && plainIdentifier.MatchString(name) {
		return name
	}
	escaped := strings.ReplaceAll(name, c.Quote, c.Quote+c.Quote)
	return c.Quote + escaped + c.Quote
}

// Placeholder implements Dialect.
func (c *Config) Placeholder(index int) string {
	if c.Placeholders == DollarNumbered {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// Supports implements Dialect.
func (c *Config) Supports(capability Capability) bool {
	return slices.Contains(c.Capabilities, capability)
}

// Built-in dialects.
var (
	// Generic quotes only when needed, uses "?" and supports everything.
	// It is the dialect used when none is configured.
	Generic = &Config{
		DialectName:  "generic",
		Quote:        `"`,
		QuoteStyle:   QuoteWhenNeeded,
		Placeholders: QuestionMark,
		Capabilities: Capabilities,
	}

	// Postgres requires ON for every join type.
	Postgres = &Config{
		DialectName:  "postgres",
		Quote:        `"`,
		QuoteStyle:   QuoteAlways,
		Placeholders: DollarNumbered,
		Capabilities: []Capability{Returning, RightJoin, FullJoin, ILike},
	}

	// MySQL has no RETURNING, FULL JOIN or ILIKE, and accepts a bare INNER
	// JOIN but not a bare outer join.
	MySQL = &Config{
		DialectName:  "mysql",
		Quote:        "`",
		QuoteStyle:   QuoteAlways,
		Placeholders: QuestionMark,
		Capabilities: []Capability{RightJoin, UnconditionedInnerJoin},
	}

	// SQLite (3.39+) supports RETURNING and all join types, with or
	// without ON.
	SQLite = &Config{
		DialectName:  "sqlite",
		Quote:        `"`,
		QuoteStyle:   QuoteAlways,
		Placeholders: QuestionMark,
		Capabilities: []Capability{Returning, RightJoin, FullJoin, UnconditionedInnerJoin, UnconditionedOuterJoin},
	}
)

var registry = map[string]Dialect{
	Generic.Name():  Generic,
	Postgres.Name(): Postgres,
	MySQL.Name():    MySQL,
	SQLite.Name():   SQLite,
}

// aliases maps alternative spellings to registry names.
var aliases = map[string]string{
	"postgresql": "postgres",
	"pg":         "postgres",
	"sqlite3":    "sqlite",
}

// Lookup returns the built-in dialect with the given name.
func Lookup(name string) (Dialect, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	d, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q: must be one of %v", name, Names())
	}
	return d, nil
}

// Names returns the registered dialect names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedCapabilities returns the capabilities d supports, in the order of
// Capabilities.
func SupportedCapabilities(d Dialect) []Capability {
	var caps []Capability
	for _, c := range Capabilities {
		if d.Supports(c) {
			caps = append(caps, c)
		}
	}
	return caps
}
