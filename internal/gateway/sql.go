package gateway

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/hrvault/internal/ctxkeys"
	"github.com/templui/hrvault/internal/model"
)

type sqlGateway struct {
	db    *sqlx.DB
	procs *Procedures
}

// NewSQLGateway serves row CRUD from db and procedures from procs.
func NewSQLGateway(db *sqlx.DB, procs *Procedures) Gateway {
	if procs == nil {
		procs = NewProcedures()
	}
	return &sqlGateway{db: db, procs: procs}
}

func (g *sqlGateway) Query(ctx context.Context, dest any, table string, q Query) error {
	err := checkIdent(table)
	if err != nil {
		return err
	}

	where, args, err := whereClause(q.Filters)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(table)
	sb.WriteString(where)
	if q.OrderBy != "" {
		err = checkIdent(q.OrderBy)
		if err != nil {
			return err
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.OrderBy)
		if q.Descending {
			sb.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	err = g.db.SelectContext(ctx, dest, g.db.Rebind(sb.String()), args...)
	if err != nil {
		return fmt.Errorf("%w: query %s: %w", ErrUnavailable, table, err)
	}
	return nil
}

func (g *sqlGateway) Insert(ctx context.Context, dest any, table string, row Row) error {
	err := checkIdent(table)
	if err != nil {
		return err
	}

	values, cols, err := prepareRow(row, nil)
	if err != nil {
		return err
	}
	query := insertStatement(table, cols)

	if dest == nil {
		_, err = g.db.NamedExecContext(ctx, query, values)
		if err != nil {
			return fmt.Errorf("%w: insert %s: %w", ErrUnavailable, table, err)
		}
		return nil
	}

	rows, err := g.db.NamedQueryContext(ctx, query+" RETURNING *", values)
	if err != nil {
		return fmt.Errorf("%w: insert %s: %w", ErrUnavailable, table, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		err = rows.Err()
		if err == nil {
			err = sql.ErrNoRows
		}
		return fmt.Errorf("%w: insert %s: %w", ErrUnavailable, table, err)
	}
	err = rows.StructScan(dest)
	if err != nil {
		return fmt.Errorf("%w: scan %s: %w", ErrUnavailable, table, err)
	}
	return nil
}

func (g *sqlGateway) InsertMany(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	err := checkIdent(table)
	if err != nil {
		return err
	}

	// Batch inserts need the same column set on every row.
	union := map[string]struct{}{}
	for _, row := range rows {
		for col := range row {
			union[col] = struct{}{}
		}
	}
	union["id"] = struct{}{}

	batch := make([]map[string]any, 0, len(rows))
	var cols []string
	for _, row := range rows {
		values, c, err := prepareRow(row, union)
		if err != nil {
			return err
		}
		cols = c
		batch = append(batch, values)
	}

	_, err = g.db.NamedExecContext(ctx, insertStatement(table, cols), batch)
	if err != nil {
		return fmt.Errorf("%w: batch insert %s: %w", ErrUnavailable, table, err)
	}
	return nil
}

func (g *sqlGateway) Update(ctx context.Context, table string, filters []Filter, patch Row) error {
	err := checkIdent(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 || len(patch) == 0 {
		return fmt.Errorf("%w: update %s needs filters and a patch", ErrInvalidQuery, table)
	}

	cols := sortedKeys(patch)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+len(filters))
	for _, col := range cols {
		err = checkIdent(col)
		if err != nil {
			return err
		}
		v, err := toDriverValue(patch[col])
		if err != nil {
			return err
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	where, whereArgs, err := whereClause(filters)
	if err != nil {
		return err
	}
	args = append(args, whereArgs...)

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + where
	_, err = g.db.ExecContext(ctx, g.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%w: update %s: %w", ErrUnavailable, table, err)
	}
	return nil
}

func (g *sqlGateway) Delete(ctx context.Context, table string, filters []Filter) error {
	err := checkIdent(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return fmt.Errorf("%w: delete %s needs filters", ErrInvalidQuery, table)
	}

	where, args, err := whereClause(filters)
	if err != nil {
		return err
	}

	_, err = g.db.ExecContext(ctx, g.db.Rebind("DELETE FROM "+table+where), args...)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrUnavailable, table, err)
	}
	return nil
}

func (g *sqlGateway) Invoke(ctx context.Context, procedure string, payload, result any) error {
	return g.procs.call(ctx, procedure, payload, result)
}

func (g *sqlGateway) CurrentUser(ctx context.Context) *model.Identity {
	return ctxkeys.Identity(ctx)
}

func whereClause(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		err := checkIdent(f.Column)
		if err != nil {
			return "", nil, err
		}

		switch f.Op {
		case OpEq, "":
			v, err := toDriverValue(f.Value)
			if err != nil {
				return "", nil, err
			}
			if v == nil {
				parts = append(parts, f.Column+" IS NULL")
				continue
			}
			parts = append(parts, f.Column+" = ?")
			args = append(args, v)
		case OpLike:
			s, ok := f.Value.(string)
			if !ok {
				return "", nil, fmt.Errorf("%w: like filter on %s needs a string", ErrInvalidQuery, f.Column)
			}
			parts = append(parts, "LOWER("+f.Column+") LIKE ?")
			args = append(args, "%"+strings.ToLower(s)+"%")
		default:
			return "", nil, fmt.Errorf("%w: operator %q", ErrInvalidQuery, f.Op)
		}
	}

	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// prepareRow converts row values to driver values and assigns an id when absent.
// When columns is non-nil the result carries exactly those columns.
func prepareRow(row Row, columns map[string]struct{}) (map[string]any, []string, error) {
	values := make(map[string]any, len(row)+1)
	for col, v := range row {
		err := checkIdent(col)
		if err != nil {
			return nil, nil, err
		}
		dv, err := toDriverValue(v)
		if err != nil {
			return nil, nil, err
		}
		values[col] = dv
	}
	if id, ok := values["id"]; !ok || id == nil || id == "" {
		values["id"] = uuid.New().String()
	}
	for col := range columns {
		if _, ok := values[col]; !ok {
			values[col] = nil
		}
	}
	return values, sortedKeys(values), nil
}

func insertStatement(table string, cols []string) string {
	named := make([]string, len(cols))
	for i, col := range cols {
		named[i] = ":" + col
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(named, ", ") + ")"
}

// toDriverValue flattens pointers and named types (model.ResourceType, *int, ...)
// into the base types every driver accepts.
func toDriverValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	dv, err := driver.DefaultParameterConverter.ConvertValue(v)
	if err != nil {
		return nil, errors.Join(ErrInvalidQuery, err)
	}
	return dv, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
