package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/querydoc"
)

var validate = validator.New()

// Scenario is a named set of query cases compiled against several dialects.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name" validate:"required"`

	// Description explains what the scenario pins down.
	Description string `yaml:"description" validate:"required"`

	// Dialects lists the dialects every case is compiled for.
	Dialects []string `yaml:"dialects" validate:"required,min=1,dive,required"`

	// Schema is an optional CUE schema directory. When set, every case is
	// validated against it before compiling.
	Schema string `yaml:"schema,omitempty"`

	// Seed is an optional SQL script run against a fresh SQLite database
	// before the first execute block.
	Seed string `yaml:"seed,omitempty"`

	Cases []Case `yaml:"cases" validate:"required,min=1,dive"`
}

// Case is one query document and its expected outcomes.
type Case struct {
	Name  string            `yaml:"name" validate:"required"`
	Query querydoc.Document `yaml:"query"`

	// Expect maps a dialect name from Scenario.Dialects to its expectation.
	// Dialects without an entry are compiled but not checked.
	Expect map[string]Expectation `yaml:"expect,omitempty" validate:"dive"`

	// Execute runs the case against the seeded SQLite database.
	Execute *Execution `yaml:"execute,omitempty"`
}

// Expectation pins the compiled output of a case in one dialect, or the error
// code it fails with.
type Expectation struct {
	SQL    string `yaml:"sql,omitempty" validate:"required_without=Error,excluded_with=Error"`
	Params []any  `yaml:"params,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Execution is the expected outcome of running a case. Unset counts are not
// checked.
type Execution struct {
	Rows     *int   `yaml:"rows,omitempty" validate:"omitempty,gte=0"`
	Affected *int64 `yaml:"affected,omitempty" validate:"omitempty,gte=0"`
	Error    string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Schema and seed paths
// are resolved relative to the file.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario parses a scenario, resolving relative paths against basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		scenario.Schema = resolvePath(basePath, scenario.Schema)
		scenario.Seed = resolvePath(basePath, scenario.Seed)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks struct rules, then the cross-field rules the tags
// cannot express.
func validateScenario(s *Scenario) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s: failed %q validation", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}

	listed := make(map[string]bool, len(s.Dialects))
	for _, name := range s.Dialects {
		if _, err := dialect.Lookup(name); err != nil {
			return err
		}
		listed[name] = true
	}

	for i, c := range s.Cases {
		if err := c.Query.Validate(); err != nil {
			return fmt.Errorf("cases[%d] %q: %w", i, c.Name, err)
		}
		for name := range c.Expect {
			if !listed[name] {
				return fmt.Errorf("cases[%d] %q: expectation for unlisted dialect %q", i, c.Name, name)
			}
		}
		if c.Execute != nil && s.Seed == "" {
			return fmt.Errorf("cases[%d] %q: execute requires a seed script", i, c.Name)
		}
	}

	if s.Schema != "" {
		if _, err := os.Stat(s.Schema); err != nil {
			return fmt.Errorf("schema directory not found: %s", s.Schema)
		}
	}
	if s.Seed != "" {
		if _, err := os.Stat(s.Seed); err != nil {
			return fmt.Errorf("seed script not found: %s", s.Seed)
		}
	}
	return nil
}
