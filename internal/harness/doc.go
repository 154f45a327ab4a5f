// Package harness runs query scenarios: YAML files that pin the SQL a query
// document compiles to in each dialect.
//
// # Scenario Format
//
//	name: join_merging
//	description: "ON conditions merge left to right"
//	dialects: [generic, postgres]
//	schema: ../schema          # optional CUE schema directory
//	seed: ../petstore.sql      # optional SQLite script for execute
//	cases:
//	  - name: or merged
//	    query:
//	      select:
//	        from: [account]
//	        joins:
//	          - type: inner
//	            table: person
//	            on:
//	              - {column: gender, op: "=", value: male}
//	              - {column: id, op: "=", value: 1, or: true}
//	    expect:
//	      generic: {sql: "SELECT * FROM account INNER JOIN person ON gender = ? OR id = ?", params: [male, 1]}
//	      postgres: {sql: 'SELECT * FROM "account" INNER JOIN "person" ON "gender" = $1 OR "id" = $2', params: [male, 1]}
//	  - name: bare join
//	    query: {select: {from: [account], joins: [{type: inner, table: person}]}}
//	    expect:
//	      postgres: {error: UNSUPPORTED_CONSTRUCT}
//
// Paths are relative to the scenario file.
//
// Every case is compiled once per listed dialect. An expectation either pins
// the SQL and parameters or names the error code the case must fail with.
// Cases with an execute block also run, in order, against one in-memory
// SQLite database seeded with the seed script, so mutations are visible to
// later cases.
//
// # Golden Files
//
// RunWithGolden renders every compiled statement and execution outcome as
// text and compares it with testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
