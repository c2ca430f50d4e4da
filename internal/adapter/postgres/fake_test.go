package postgres

import (
	"context"
	"errors"
	"reflect"
	"strings"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return errors.New("fakeRow: column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

type fakeRows struct {
	rows []fakeRow
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }
func (r *fakeRows) Close()                 {}
func (r *fakeRows) Err() error             { return r.err }

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }

type call struct {
	sql  string
	args []any
}

// fakeDB serves both the pool and the transaction side of the DB interfaces.
type fakeDB struct {
	queryRow func(sql string, args []any) Row
	query    func(sql string, args []any) (Rows, error)
	execErr  func(sql string) error

	execs      []call
	queries    []call
	committed  bool
	rolledBack bool
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (Rows, error) {
	f.queries = append(f.queries, call{sql, args})
	if f.query == nil {
		return &fakeRows{}, nil
	}
	return f.query(sql, args)
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) Row {
	f.queries = append(f.queries, call{sql, args})
	return f.queryRow(sql, args)
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (CommandTag, error) {
	f.execs = append(f.execs, call{sql, args})
	if f.execErr != nil {
		if err := f.execErr(sql); err != nil {
			return nil, err
		}
	}
	return fakeTag(1), nil
}

func (f *fakeDB) Begin(context.Context) (Tx, error) { return f, nil }
func (f *fakeDB) Close()                            {}

func (f *fakeDB) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeDB) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

func (f *fakeDB) execsContaining(fragment string) []call {
	var out []call
	for _, c := range f.execs {
		if strings.Contains(c.sql, fragment) {
			out = append(out, c)
		}
	}
	return out
}
