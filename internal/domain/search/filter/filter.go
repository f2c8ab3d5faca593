// Package filter models metadata filters as a canonical predicate structure.
package filter

import (
	"fmt"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
)

// Filterable metadata keys. Anything else is rejected at build time.
const (
	KeyStage   = "stage"
	KeySubject = "subject"
)

// Condition is a single equality predicate on a metadata tag field.
type Condition struct {
	key   string
	match string
}

// Key returns the metadata field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact value to match.
func (c Condition) Match() string { return c.match }

// Expression is a conjunction of equality conditions. The zero value is the
// unrestricted filter.
type Expression struct {
	must []Condition
}

// Must returns the conjunction's conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression restricts the search at all.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Builder accumulates equality conditions, rejecting unknown keys.
type Builder struct {
	conds []Condition
	err   error
}

// NewBuilder creates an empty filter builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Equals adds an equality condition. Unknown keys poison the builder;
// empty values are skipped so callers can pass optional attributes through.
func (b *Builder) Equals(key, value string) *Builder {
	if b.err != nil {
		return b
	}
	switch key {
	case KeyStage, KeySubject:
	default:
		b.err = fmt.Errorf("%w: unknown filter key %q", domain.ErrInvalidFilter, key)
		return b
	}
	if value == "" {
		return b
	}
	b.conds = append(b.conds, Condition{key: key, match: value})
	return b
}

// Build returns the accumulated expression or the first builder error.
func (b *Builder) Build() (Expression, error) {
	if b.err != nil {
		return Expression{}, b.err
	}
	return Expression{must: b.conds}, nil
}

// FromQuery builds the standard query filter from optional stage/subject
// attributes. Empty attributes leave the search unrestricted on that key.
func FromQuery(stage, subject string) (Expression, error) {
	return NewBuilder().
		Equals(KeyStage, stage).
		Equals(KeySubject, subject).
		Build()
}
