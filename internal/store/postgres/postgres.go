// Package postgres stores document collections as JSONB rows, one table per
// collection (see pkg/database/migrations).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eventboard/backend/internal/store"
)

// DB is the subset of *pgxpool.Pool the collections use.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Collection is a store.Collection backed by a PostgreSQL table.
type Collection[T any] struct {
	db    DB
	table string
}

// NewCollection creates a collection over table.
func NewCollection[T any](db DB, table string) *Collection[T] {
	return &Collection[T]{db: db, table: pgx.Identifier{table}.Sanitize()}
}

// Find implements store.Collection.
func (c *Collection[T]) Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*T, error) {
	q, args, err := c.selectQuery(filter, opts)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	defer rows.Close()

	var list []*T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}
		doc, err := store.Decode[T](raw)
		if err != nil {
			return nil, err
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// FindOne implements store.Collection.
func (c *Collection[T]) FindOne(ctx context.Context, filter store.Filter) (*T, error) {
	list, err := c.Find(ctx, filter, store.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, store.ErrNotFound
	}
	return list[0], nil
}

// Insert implements store.Collection.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) (*T, error) {
	id := uuid.NewString()
	raw, err := store.EncodeWithID(doc, id)
	if err != nil {
		return nil, err
	}
	q := `INSERT INTO ` + c.table + ` (id, doc) VALUES ($1, $2::jsonb) RETURNING doc`
	var stored []byte
	if err := c.db.QueryRow(ctx, q, id, string(raw)).Scan(&stored); err != nil {
		return nil, writeError("insert", c.table, err)
	}
	return store.Decode[T](stored)
}

// Update implements store.Collection.
func (c *Collection[T]) Update(ctx context.Context, filter store.Filter, doc *T) (int64, error) {
	raw, err := store.EncodeWithID(doc, "")
	if err != nil {
		return 0, err
	}
	where, args, err := buildWhere(filter, 2)
	if err != nil {
		return 0, err
	}
	q := `UPDATE ` + c.table + ` SET doc = $1::jsonb || jsonb_build_object('_id', id), updated_at = NOW()` + where
	tag, err := c.db.Exec(ctx, q, append([]any{string(raw)}, args...)...)
	if err != nil {
		return 0, writeError("update", c.table, err)
	}
	return tag.RowsAffected(), nil
}

// uniqueViolation is the SQLSTATE of a unique index conflict.
const uniqueViolation = "23505"

func writeError(op, table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s %s: %w (%s)", op, table, store.ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}

func (c *Collection[T]) selectQuery(filter store.Filter, opts store.FindOptions) (string, []any, error) {
	if err := opts.Validate(); err != nil {
		return "", nil, err
	}
	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString(`SELECT doc FROM `)
	b.WriteString(c.table)
	b.WriteString(where)
	if opts.Sort != nil {
		args = append(args, opts.Sort.Field)
		dir := "ASC"
		if opts.Sort.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, ` ORDER BY doc->($%d::text) %s, created_at, id`, len(args), dir)
	} else {
		b.WriteString(` ORDER BY created_at, id`)
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	return b.String(), args, nil
}

// buildWhere renders filter as a WHERE clause whose placeholders start at $start.
// Field names travel as parameters; values are cast according to their Go type.
func buildWhere(filter store.Filter, start int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}
	n := start
	var args []any
	clauses := make([]string, 0, len(filter))
	for _, cond := range filter {
		if cond.Field == store.IDField {
			clauses = append(clauses, fmt.Sprintf(`id %s $%d`, cond.Op, n))
			args = append(args, fmt.Sprint(cond.Value))
			n++
			continue
		}
		lhs := fmt.Sprintf(`doc->>($%d::text)`, n)
		var rhs string
		switch v := cond.Value.(type) {
		case time.Time:
			lhs = "(" + lhs + ")::timestamptz"
			rhs = fmt.Sprintf(`$%d::timestamptz`, n+1)
			args = append(args, cond.Field, v)
		case string:
			rhs = fmt.Sprintf(`$%d::text`, n+1)
			args = append(args, cond.Field, v)
		case bool:
			lhs = "(" + lhs + ")::boolean"
			rhs = fmt.Sprintf(`$%d::boolean`, n+1)
			args = append(args, cond.Field, v)
		case int, int32, int64, float32, float64:
			lhs = "(" + lhs + ")::numeric"
			rhs = fmt.Sprintf(`$%d::numeric`, n+1)
			args = append(args, cond.Field, v)
		default:
			return "", nil, fmt.Errorf("unsupported filter value %T for %q", cond.Value, cond.Field)
		}
		clauses = append(clauses, lhs+" "+string(cond.Op)+" "+rhs)
		n += 2
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}
