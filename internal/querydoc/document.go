// Package querydoc reads declarative YAML query documents and turns them into
// builders.
//
// A document holds exactly one statement:
//
//	name: dog owners
//	select:
//	  from: [person as p]
//	  columns: [p.first_name]
//	  joins:
//	    - type: inner
//	      table: pet
//	      on:
//	        - {column: pet.owner_id, op: "=", ref: p.id}
//	        - {column: pet.species, op: "=", value: dog}
//	  where:
//	    - {column: p.age, op: ">=", value: 18}
//	    - {column: p.gender, op: "=", value: other, or: true}
//	  order_by: [{column: p.first_name, direction: asc}]
//	  limit: 10
package querydoc

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Document is one query document.
type Document struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	Select *Select    `yaml:"select,omitempty"`
	Insert *Insert    `yaml:"insert,omitempty"`
	Update *UpdateDoc `yaml:"update,omitempty"`
	Delete *Delete    `yaml:"delete,omitempty"`
	Raw    *Raw       `yaml:"raw,omitempty"`
}

// Select describes a SELECT statement.
type Select struct {
	From        []string     `yaml:"from" validate:"required,min=1,dive,required"`
	Distinct    bool         `yaml:"distinct,omitempty"`
	Columns     []string     `yaml:"columns,omitempty" validate:"dive,required"`
	Expressions []Expression `yaml:"expressions,omitempty" validate:"dive"`
	Joins       []Join       `yaml:"joins,omitempty" validate:"dive"`
	Where       []Condition  `yaml:"where,omitempty" validate:"dive"`
	GroupBy     []string     `yaml:"group_by,omitempty" validate:"dive,required"`
	Having      []Condition  `yaml:"having,omitempty" validate:"dive"`
	OrderBy     []OrderBy    `yaml:"order_by,omitempty" validate:"dive"`
	Limit       *int64       `yaml:"limit,omitempty" validate:"omitempty,gte=0"`
	Offset      *int64       `yaml:"offset,omitempty" validate:"omitempty,gte=0"`
}

// Expression is a raw select-list entry such as count(*).
type Expression struct {
	SQL    string `yaml:"sql" validate:"required"`
	Params []any  `yaml:"params,omitempty"`
	As     string `yaml:"as,omitempty"`
}

// Join describes one join clause. An empty On leaves it unconditioned.
type Join struct {
	Type  string      `yaml:"type" validate:"required,oneof=inner left right full"`
	Table string      `yaml:"table" validate:"required"`
	On    []Condition `yaml:"on,omitempty" validate:"dive"`
}

// Condition is one entry of a where, having or on list. Entries are merged
// left to right with AND, or with OR when Or is set.
//
// Exactly one form is used:
//   - column + op + one of value, values, ref, subquery (value may be omitted
//     for "is null")
//   - group: a parenthesized list of conditions
//   - raw: a SQL fragment with params
type Condition struct {
	Column   string      `yaml:"column,omitempty" validate:"required_without_all=Group Raw,excluded_with=Group Raw"`
	Op       string      `yaml:"op,omitempty" validate:"required_with=Column"`
	Value    any         `yaml:"value,omitempty"`
	Values   []any       `yaml:"values,omitempty" validate:"omitempty,min=1"`
	Ref      string      `yaml:"ref,omitempty"`
	Subquery *Select     `yaml:"subquery,omitempty"`
	Group    []Condition `yaml:"group,omitempty" validate:"omitempty,min=1,dive"`
	Raw      string      `yaml:"raw,omitempty" validate:"excluded_with=Group"`
	Params   []any       `yaml:"params,omitempty"`
	Or       bool        `yaml:"or,omitempty"`
}

// OrderBy is one ORDER BY item.
type OrderBy struct {
	Column    string `yaml:"column" validate:"required"`
	Direction string `yaml:"direction,omitempty" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// Insert describes an INSERT statement. Rows are positional; Values are
// column → value maps.
type Insert struct {
	Into      string           `yaml:"into" validate:"required"`
	Columns   []string         `yaml:"columns,omitempty" validate:"dive,required"`
	Rows      [][]any          `yaml:"rows,omitempty" validate:"required_without=Values,excluded_with=Values,dive,min=1"`
	Values    []map[string]any `yaml:"values,omitempty" validate:"dive,min=1"`
	Returning []string         `yaml:"returning,omitempty" validate:"dive,required"`
}

// UpdateDoc describes an UPDATE statement. Set is applied in sorted key order.
type UpdateDoc struct {
	Table     string         `yaml:"table" validate:"required"`
	Set       map[string]any `yaml:"set" validate:"required,min=1"`
	Where     []Condition    `yaml:"where,omitempty" validate:"dive"`
	Returning []string       `yaml:"returning,omitempty" validate:"dive,required"`
}

// Delete describes a DELETE statement.
type Delete struct {
	From      string      `yaml:"from" validate:"required"`
	Where     []Condition `yaml:"where,omitempty" validate:"dive"`
	Returning []string    `yaml:"returning,omitempty" validate:"dive,required"`
}

// Raw is a complete statement in caller SQL.
type Raw struct {
	SQL    string `yaml:"sql" validate:"required"`
	Params []any  `yaml:"params,omitempty"`
}

// Parse decodes and validates a document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse query document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query document: %w", err)
	}
	return &doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks that exactly one statement is present and that its fields
// are well formed.
func (d *Document) Validate() error {
	count := 0
	for _, present := range []bool{d.Select != nil, d.Insert != nil, d.Update != nil, d.Delete != nil, d.Raw != nil} {
		if present {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("document must contain exactly one of select, insert, update, delete, raw (found %d)", count)
	}

	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s: failed %q validation", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// Kind names the statement held by the document.
func (d *Document) Kind() string {
	switch {
	case d.Select != nil:
		return "select"
	case d.Insert != nil:
		return "insert"
	case d.Update != nil:
		return "update"
	case d.Delete != nil:
		return "delete"
	case d.Raw != nil:
		return "raw"
	}
	return ""
}
