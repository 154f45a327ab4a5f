package builder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/querykit/internal/node"
)

var aliasPattern = regexp.MustCompile(`(?i)^\s*(\S+)\s+as\s+(\S+)\s*$`)

// splitAlias splits "expr as alias". The alias is "" if there is none.
func splitAlias(s string) (expr, alias string) {
	if m := aliasPattern.FindStringSubmatch(s); m != nil {
		return m[1], m[2]
	}
	return strings.TrimSpace(s), ""
}

// splitQualified splits "a.b" into ("a", "b") and "b" into ("", "b").
func splitQualified(s string) (qualifier, name string, err error) {
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		return "", parts[0], nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, s)
		}
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("%w: %q has more than one qualifier", ErrInvalidReference, s)
	}
}

// parseTableName parses "table" or "schema.table".
func parseTableName(s string) (*node.TableNode, error) {
	schema, table, err := splitQualified(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return node.NewSchemaTable(schema, table)
}

// parseTable parses "table", "schema.table" and either with "as alias".
func parseTable(s string) (node.Node, error) {
	expr, alias := splitAlias(s)
	t, err := parseTableName(expr)
	if err != nil {
		return nil, err
	}
	if alias == "" {
		return t, nil
	}
	return node.NewAlias(t, alias)
}

// parseColumn parses "column" or "table.column".
func parseColumn(s string) (*node.ColumnNode, error) {
	table, column, err := splitQualified(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return node.NewReference(table, column)
}

// parseSelection parses a select-list entry: "*", "table.*", "column",
// "table.column", and the latter two with "as alias".
func parseSelection(s string) (node.Node, error) {
	expr, alias := splitAlias(s)

	if expr == "*" || strings.HasSuffix(expr, ".*") {
		if alias != "" {
			return nil, fmt.Errorf("%w: %q cannot be aliased", ErrInvalidReference, s)
		}
		table := strings.TrimSuffix(strings.TrimSuffix(expr, "*"), ".")
		if strings.Contains(table, ".") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidReference, s)
		}
		return node.NewSelectAll(table), nil
	}

	col, err := parseColumn(expr)
	if err != nil {
		return nil, err
	}
	if alias == "" {
		return col, nil
	}
	return node.NewAlias(col, alias)
}
