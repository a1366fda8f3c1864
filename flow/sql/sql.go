// Package sql provides stream adapters for database operations using database/sql.
// Queries are fixed sources: they run when the stage starts and emit one
// value per row followed by Completed. Exec is a per-value stage that runs a
// statement for every value it receives.
package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Scanner is a function that scans a row into a value.
type Scanner[T any] func(*sql.Rows) (T, error)

// Query creates a Stream that executes a query on Start and emits one value
// per row, then Completed. A scan failure is emitted as an Error and the
// remaining rows are still read. A query failure is emitted as an Error
// followed by Completed.
func Query[T any](db *sql.DB, query string, scanner Scanner[T], args ...any) core.Stream[T] {
	return core.Emit(func(ctx context.Context, push func(core.Result[T])) {
		defer push(core.Completed[T]())

		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			push(core.Err[T](fmt.Errorf("query: %w", err)))
			return
		}
		defer rows.Close()

		for rows.Next() {
			value, err := core.Recover(func() (T, error) { return scanner(rows) })
			if err != nil {
				push(core.Err[T](err))
				continue
			}
			push(core.Ok(value))
		}
		if err := rows.Err(); err != nil {
			push(core.Err[T](err))
		}
	})
}

// QueryRow creates a Stream that executes a query expecting a single row.
// sql.ErrNoRows is emitted as an Error.
func QueryRow[T any](db *sql.DB, query string, scanner func(*sql.Row) (T, error), args ...any) core.Stream[T] {
	return core.Emit(func(ctx context.Context, push func(core.Result[T])) {
		row := db.QueryRowContext(ctx, query, args...)
		value, err := scanner(row)
		if err != nil {
			push(core.Err[T](err))
		} else {
			push(core.Ok(value))
		}
		push(core.Completed[T]())
	})
}

// ExecResult contains the result of an exec operation.
type ExecResult struct {
	LastInsertId int64
	RowsAffected int64
}

func execOne(ctx context.Context, db *sql.DB, query string, args []any) (ExecResult, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, err
	}
	lastID, _ := result.LastInsertId()
	rowsAffected, _ := result.RowsAffected()
	return ExecResult{LastInsertId: lastID, RowsAffected: rowsAffected}, nil
}

// ExecOnce creates a Stream that executes a statement on Start and emits
// its result.
func ExecOnce(db *sql.DB, query string, args ...any) core.Stream[ExecResult] {
	return core.Emit(func(ctx context.Context, push func(core.Result[ExecResult])) {
		res, err := execOne(ctx, db, query, args)
		if err != nil {
			push(core.Err[ExecResult](err))
		} else {
			push(core.Ok(res))
		}
		push(core.Completed[ExecResult]())
	})
}

// Exec creates a Transformer that executes a statement for each input value.
// The binder function converts the input value to query arguments. The
// statement runs synchronously on the goroutine delivering the value, with
// the context the stage was started with.
func Exec[T any](db *sql.DB, query string, binder func(T) []any) core.Transformer[T, ExecResult] {
	return core.TransformerFunc[T, ExecResult](func(s core.Stream[T]) core.Stream[ExecResult] {
		node := core.NewNode[ExecResult]("sqlexec")
		node.SetStart(func(ctx context.Context) {
			node.Track(s.Subscribe(func(res core.Result[T]) {
				if !res.IsValue() {
					node.Push(core.Retype[ExecResult](res))
					return
				}
				v := res.Value()
				args, err := core.Recover(func() ([]any, error) { return binder(v), nil })
				if err != nil {
					node.Push(core.Err[ExecResult](err))
					return
				}
				out, err := execOne(ctx, db, query, args)
				if err != nil {
					node.Push(core.Err[ExecResult](err))
					return
				}
				node.Push(core.Ok(out))
			}))
			s.Start(ctx)
		})
		return node
	})
}

// Transaction creates a Stream that runs fn within a database transaction
// on Start. If fn returns an error, the transaction is rolled back and the
// error emitted. Otherwise, it is committed and fn's value emitted.
func Transaction[T any](db *sql.DB, fn func(tx *sql.Tx) (T, error)) core.Stream[T] {
	return core.Emit(func(ctx context.Context, push func(core.Result[T])) {
		defer push(core.Completed[T]())

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			push(core.Err[T](err))
			return
		}
		value, err := core.Recover(func() (T, error) { return fn(tx) })
		if err != nil {
			_ = tx.Rollback()
			push(core.Err[T](err))
			return
		}
		if err := tx.Commit(); err != nil {
			push(core.Err[T](err))
			return
		}
		push(core.Ok(value))
	})
}

// scanAny scans the current row into a slice of driver values.
func scanAny(rows *sql.Rows) ([]string, []any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	values := make([]any, len(cols))
	valuePtrs := make([]any, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, nil, err
	}
	return cols, values, nil
}

// QueryStrings is a convenience function that queries for string slices.
// Each row is scanned into a slice of strings; NULL becomes "".
func QueryStrings(db *sql.DB, query string, args ...any) core.Stream[[]string] {
	return Query(db, query, func(rows *sql.Rows) ([]string, error) {
		_, values, err := scanAny(rows)
		if err != nil {
			return nil, err
		}
		result := make([]string, len(values))
		for i, v := range values {
			switch val := v.(type) {
			case nil:
			case []byte:
				result[i] = string(val)
			default:
				result[i] = fmt.Sprint(val)
			}
		}
		return result, nil
	}, args...)
}

// QueryMaps is a convenience function that queries for map results.
// Each row is scanned into a map with column names as keys.
func QueryMaps(db *sql.DB, query string, args ...any) core.Stream[map[string]any] {
	return Query(db, query, func(rows *sql.Rows) (map[string]any, error) {
		cols, values, err := scanAny(rows)
		if err != nil {
			return nil, err
		}
		result := make(map[string]any, len(cols))
		for i, col := range cols {
			result[col] = values[i]
		}
		return result, nil
	}, args...)
}
