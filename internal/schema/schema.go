// Package schema describes database tables in CUE and checks query trees
// against them.
//
// A schema is a CUE document of the form:
//
//	tables: person: columns: {
//		id:         "integer"
//		first_name: "text"
//	}
//	tables: pet: {
//		schema: "public"
//		columns: {id: "integer", owner_id: "integer", name: "text"}
//	}
//
// Documents are unified with the built-in #Schema definition, so a misspelled
// key or an unknown column type is reported with its source position.
package schema

import (
	_ "embed"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

//go:embed schema.cue
var definition string

// ColumnTypes lists the column types a schema may declare.
var ColumnTypes = []string{"integer", "real", "text", "boolean", "blob", "timestamp", "json"}

// Column is one column of a table.
type Column struct {
	Name string
	Type string
}

// Table is one table of a schema.
type Table struct {
	Name    string
	Schema  string // database schema qualifier, "" if unqualified
	Columns map[string]Column
}

// HasColumn reports whether the table declares name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Columns[name]
	return ok
}

// ColumnNames returns the column names in sorted order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema is a set of tables.
type Schema struct {
	Tables map[string]*Table
}

// Table returns the named table, or nil.
func (s *Schema) Table(name string) *Table {
	return s.Tables[name]
}

// TableNames returns the table names in sorted order.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse compiles a single CUE source. filename is used in error positions.
func Parse(filename, src string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, err)
	}
	return fromValue(ctx, v)
}

// Load loads every .cue file of the package in dir.
func Load(dir string) (*Schema, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, newError(ErrCodeNotFound, "schema directory: %v", err)
	}
	if !info.IsDir() {
		return nil, newError(ErrCodeNotFound, "not a directory: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, newError(ErrCodeLoadFailed, "scanning %s: %v", dir, err)
	}
	if len(files) == 0 {
		return nil, newError(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, newError(ErrCodeLoadFailed, "no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, inst.Err)
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, err)
	}
	return fromValue(ctx, v)
}

// fromValue checks v against #Schema and extracts the tables.
func fromValue(ctx *cue.Context, v cue.Value) (*Schema, error) {
	def := ctx.CompileString(definition, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Schema"))
	if err := def.Err(); err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeInvalidSchema, err)
	}

	s := &Schema{Tables: make(map[string]*Table)}

	tables, err := unified.LookupPath(cue.ParsePath("tables")).Fields()
	if err != nil {
		return nil, fromCUE(ErrCodeInvalidSchema, err)
	}
	for tables.Next() {
		name := tables.Selector().Unquoted()
		tv := tables.Value()

		t := &Table{Name: name, Columns: make(map[string]Column)}
		if sv := tv.LookupPath(cue.ParsePath("schema")); sv.Exists() {
			if t.Schema, err = sv.String(); err != nil {
				return nil, fromCUE(ErrCodeInvalidSchema, err)
			}
		}

		cols, err := tv.LookupPath(cue.ParsePath("columns")).Fields()
		if err != nil {
			return nil, fromCUE(ErrCodeInvalidSchema, err)
		}
		for cols.Next() {
			typ, err := cols.Value().String()
			if err != nil {
				return nil, fromCUE(ErrCodeInvalidSchema, err)
			}
			col := cols.Selector().Unquoted()
			t.Columns[col] = Column{Name: col, Type: typ}
		}

		s.Tables[name] = t
	}

	return s, nil
}
