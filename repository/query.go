package repository

import (
	padlock "github.com/goliatone/go-padlock"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

var _ padlock.Query = (*Query)(nil)

// Query adapts a bun select query to padlock.Query so refinements stay
// storage agnostic. Refinements that need the full query builder can
// reach it through Bun.
type Query struct {
	q *bun.SelectQuery
}

// Where adds an equality condition on column.
func (b *Query) Where(column string, value any) padlock.Query {
	b.q = b.q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	return b
}

// Bun returns the underlying select query.
func (b *Query) Bun() *bun.SelectQuery {
	return b.q
}

// SetBun replaces the underlying select query.
func (b *Query) SetBun(q *bun.SelectQuery) {
	if q != nil {
		b.q = q
	}
}

// BunQuery unwraps q when it is backed by bun.
func BunQuery(q padlock.Query) (*bun.SelectQuery, bool) {
	b, ok := q.(*Query)
	if !ok || b == nil {
		return nil, false
	}
	return b.q, true
}

// refinements folds padlock refinements into a single select criteria.
// A refinement returning nil keeps the query it changed in place.
func refinements(refine ...padlock.Refinement) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		wrapped := &Query{q: q}
		for _, fn := range refine {
			next := fn(wrapped)
			if next == nil {
				continue
			}
			if b, ok := next.(*Query); ok && b != nil {
				wrapped = b
			}
		}
		return wrapped.q
	}
}
