package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"time"
)

// DomainCompiledQuery is the domain prefix for compiled query fingerprints.
// The version suffix allows the encoding to change later.
const DomainCompiledQuery = "querykit/compiled/v1"

// Fingerprint returns a stable content hash of the SQL text and parameters.
//
// Format: SHA256(domain + 0x00 + sql + 0x00 + (type "=" value 0x00)*)
//
// The parameter type is part of the hash so that 1 and "1" differ. Two
// compilations of the same tree with the same dialect always share a
// fingerprint, also across processes: top-level pointers are hashed by the
// value they point to (as database/sql binds them), and a time.Time is
// hashed as its UTC instant. Pointers nested inside slices or maps are
// hashed as printed by fmt.
func (q *CompiledQuery) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(DomainCompiledQuery))
	h.Write([]byte{0x00})
	h.Write([]byte(q.SQL))
	h.Write([]byte{0x00})
	for _, p := range q.Parameters {
		p = fingerprintValue(p)
		// fmt prints maps with sorted keys, so the encoding is deterministic.
		fmt.Fprintf(h, "%T=%v", p, p)
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// fingerprintValue strips what fmt would print differently between runs of
// the same query: pointer addresses and the monotonic clock reading.
func fingerprintValue(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	v = rv.Interface()
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}
