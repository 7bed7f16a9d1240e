// Package gateway is the data access boundary used by the vault services:
// generic row CRUD against the relational store plus named server-side
// procedures for everything that is not plain CRUD.
package gateway

import (
	"context"
	"errors"
	"regexp"

	"github.com/templui/hrvault/internal/model"
)

var (
	// ErrUnavailable wraps every store or transport failure. Callers may retry.
	ErrUnavailable = errors.New("gateway unavailable")
	// ErrUnauthenticated is returned by procedures that need a caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnknownProcedure is returned by Invoke for unregistered names.
	ErrUnknownProcedure = errors.New("unknown procedure")
	// ErrInvalidQuery reports a malformed table, column or filter set.
	ErrInvalidQuery = errors.New("invalid query")
)

// Row is a column -> value map used for inserts and patches.
type Row map[string]any

type Op string

const (
	OpEq   Op = "="
	OpLike Op = "like" // case-insensitive substring match, value is wrapped in %...%
)

type Filter struct {
	Column string
	Op     Op
	Value  any // nil matches NULL for OpEq
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

func Like(column, value string) Filter {
	return Filter{Column: column, Op: OpLike, Value: value}
}

type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

type Gateway interface {
	// Query scans all rows of table matching q into dest, a pointer to a slice.
	Query(ctx context.Context, dest any, table string, q Query) error

	// Insert creates one row and scans the persisted row, including server
	// assigned fields, into dest. dest may be nil.
	Insert(ctx context.Context, dest any, table string, row Row) error

	// InsertMany writes all rows in a single batch statement.
	InsertMany(ctx context.Context, table string, rows []Row) error

	// Update applies patch to every row matching filters. Matching nothing is not an error.
	Update(ctx context.Context, table string, filters []Filter, patch Row) error

	Delete(ctx context.Context, table string, filters []Filter) error

	// Invoke calls a named procedure. payload and result go through the JSON
	// codec exactly as they would over the wire. result may be nil.
	Invoke(ctx context.Context, procedure string, payload, result any) error

	// CurrentUser resolves the calling identity, nil when unauthenticated.
	CurrentUser(ctx context.Context) *model.Identity
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return errors.Join(ErrInvalidQuery, errors.New("bad identifier "+name))
	}
	return nil
}
