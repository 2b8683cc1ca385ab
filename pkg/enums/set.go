// Package enums holds the string enums shared by models, SQL migrations and
// the HTTP layer. Each value matches a Postgres enum label.
package enums

import (
	"fmt"
	"slices"
)

// set is the ordered list of labels of one enum.
type set[T ~string] []T

func (s set[T]) has(v T) bool { return slices.Contains(s, v) }

func (s set[T]) parse(kind, raw string) (T, error) {
	if v := T(raw); s.has(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
