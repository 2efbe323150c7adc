// Package symdb persists the symbol table of checked compilation units in a
// SQLite database so that later stages can query it without re-checking.
package symdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/checker"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/typesystem"
)

const schema = `
CREATE TABLE IF NOT EXISTS units (
	id         TEXT PRIMARY KEY,
	file       TEXT NOT NULL,
	checked_at INTEGER NOT NULL,
	errors     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS symbols (
	unit_id      TEXT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
	scope        TEXT NOT NULL,
	name         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	type         TEXT NOT NULL,
	phase        TEXT NOT NULL,
	reassignable INTEGER NOT NULL,
	docs         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS symbols_by_name ON symbols(unit_id, name);
CREATE TABLE IF NOT EXISTS expressions (
	unit_id TEXT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
	expr_id INTEGER NOT NULL,
	type    TEXT NOT NULL,
	phase   TEXT NOT NULL,
	PRIMARY KEY (unit_id, expr_id)
);
`

// RootScope names the top level scope of a unit.
const RootScope = "<root>"

// ErrUnitNotFound is returned for unknown unit IDs.
var ErrUnitNotFound = errors.New("unit not found")

// Unit is one stored compilation unit.
type Unit struct {
	ID        string
	File      string
	CheckedAt time.Time
	Errors    int
}

// Symbol is one entry of a checked scope.
type Symbol struct {
	Scope        string
	Name         string
	Kind         string
	Type         string
	Phase        string
	Reassignable bool
	Docs         string
}

// Expression is the stored result of one checked expression.
type Expression struct {
	ID    int
	Type  string
	Phase string
}

// DB is an open symbol database.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open symbol database %s: %w", path, err)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open symbol database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create symbol schema in %s: %w", path, err)
	}
	return &DB{db: db, now: time.Now}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Store writes a checked unit and returns it. Everything is written in one
// transaction.
func (d *DB) Store(ctx context.Context, file string, res *checker.Result) (Unit, error) {
	unit := Unit{
		ID:        uuid.NewString(),
		File:      file,
		CheckedAt: d.now().UTC().Truncate(time.Second),
		Errors:    len(res.Errors),
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return Unit{}, fmt.Errorf("store %s: %w", file, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO units (id, file, checked_at, errors) VALUES (?, ?, ?, ?)",
		unit.ID, unit.File, unit.CheckedAt.Unix(), unit.Errors); err != nil {
		return Unit{}, fmt.Errorf("store unit %s: %w", file, err)
	}

	symStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO symbols (unit_id, scope, name, kind, type, phase, reassignable, docs) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return Unit{}, fmt.Errorf("store symbols of %s: %w", file, err)
	}
	defer symStmt.Close()

	for _, sc := range orderedScopes(res) {
		for _, s := range scopeSymbols(sc.name, sc.env) {
			if _, err := symStmt.ExecContext(ctx, unit.ID, s.Scope, s.Name, s.Kind, s.Type, s.Phase, s.Reassignable, s.Docs); err != nil {
				return Unit{}, fmt.Errorf("store symbol %s of %s: %w", s.Name, file, err)
			}
		}
	}

	exprStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO expressions (unit_id, expr_id, type, phase) VALUES (?, ?, ?, ?)")
	if err != nil {
		return Unit{}, fmt.Errorf("store expressions of %s: %w", file, err)
	}
	defer exprStmt.Close()

	var exprErr error
	res.Types.EachExpr(func(id int, typ typesystem.Type, phase typesystem.Phase) {
		if exprErr != nil {
			return
		}
		if _, err := exprStmt.ExecContext(ctx, unit.ID, id, typ.String(), phase.String()); err != nil {
			exprErr = fmt.Errorf("store expression %d of %s: %w", id, file, err)
		}
	})
	if exprErr != nil {
		return Unit{}, exprErr
	}

	if err := tx.Commit(); err != nil {
		return Unit{}, fmt.Errorf("store %s: %w", file, err)
	}
	return unit, nil
}

type namedScope struct {
	name string
	env  *symbols.SymbolEnv
}

// orderedScopes lists the checked scopes in source order, root first.
func orderedScopes(res *checker.Result) []namedScope {
	type entry struct {
		scope *ast.Scope
		env   *symbols.SymbolEnv
	}
	var entries []entry
	for scope, env := range res.Scopes {
		entries = append(entries, entry{scope, env})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.env == res.Env || b.env == res.Env {
			return a.env == res.Env && b.env != res.Env
		}
		if a.scope.Span.Start.Line != b.scope.Span.Start.Line {
			return a.scope.Span.Start.Line < b.scope.Span.Start.Line
		}
		return a.scope.Span.Start.Col < b.scope.Span.Start.Col
	})

	out := make([]namedScope, 0, len(entries))
	for _, e := range entries {
		name := e.scope.Span.String()
		if e.env == res.Env {
			name = RootScope
		}
		out = append(out, namedScope{name: name, env: e.env})
	}
	return out
}

func scopeSymbols(scope string, env *symbols.SymbolEnv) []Symbol {
	var out []Symbol
	for _, entry := range env.Iter(false) {
		s := Symbol{Scope: scope, Name: entry.Name, Phase: entry.Info.Phase.String()}
		switch k := entry.Kind.(type) {
		case typesystem.VariableInfo:
			s.Kind = variableKindName(k.Kind)
			s.Type = k.Type.String()
			s.Phase = k.Phase.String()
			s.Reassignable = k.Reassignable
			if k.Docs != nil {
				s.Docs = k.Docs.Summary
			}
		case typesystem.TypeSymbol:
			s.Kind = "type"
			s.Type = k.Type.String()
		case *typesystem.Namespace:
			s.Kind = "namespace"
			s.Type = k.Name
		}
		out = append(out, s)
	}
	return out
}

func variableKindName(k typesystem.VariableKind) string {
	switch k {
	case typesystem.FreeVariable:
		return "variable"
	case typesystem.InstanceMember:
		return "instance member"
	case typesystem.StaticMember:
		return "static member"
	case typesystem.TypeVariable:
		return "type variable"
	case typesystem.NamespaceVariable:
		return "namespace variable"
	}
	return "error"
}

// Units lists the stored units, newest first.
func (d *DB) Units(ctx context.Context) ([]Unit, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id, file, checked_at, errors FROM units ORDER BY checked_at DESC, file")
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		var checkedAt int64
		if err := rows.Scan(&u.ID, &u.File, &checkedAt, &u.Errors); err != nil {
			return nil, fmt.Errorf("list units: %w", err)
		}
		u.CheckedAt = time.Unix(checkedAt, 0).UTC()
		units = append(units, u)
	}
	return units, rows.Err()
}

// Symbols returns every symbol of a unit in scope order.
func (d *DB) Symbols(ctx context.Context, unitID string) ([]Symbol, error) {
	if err := d.requireUnit(ctx, unitID); err != nil {
		return nil, err
	}
	return d.querySymbols(ctx,
		"SELECT scope, name, kind, type, phase, reassignable, docs FROM symbols WHERE unit_id = ? ORDER BY rowid",
		unitID)
}

// Lookup returns the symbols of a unit named name, in any scope.
func (d *DB) Lookup(ctx context.Context, unitID, name string) ([]Symbol, error) {
	if err := d.requireUnit(ctx, unitID); err != nil {
		return nil, err
	}
	return d.querySymbols(ctx,
		"SELECT scope, name, kind, type, phase, reassignable, docs FROM symbols WHERE unit_id = ? AND name = ? ORDER BY rowid",
		unitID, name)
}

// Expressions returns the stored expression results of a unit.
func (d *DB) Expressions(ctx context.Context, unitID string) ([]Expression, error) {
	if err := d.requireUnit(ctx, unitID); err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, "SELECT expr_id, type, phase FROM expressions WHERE unit_id = ? ORDER BY expr_id", unitID)
	if err != nil {
		return nil, fmt.Errorf("query expressions: %w", err)
	}
	defer rows.Close()

	var out []Expression
	for rows.Next() {
		var e Expression
		if err := rows.Scan(&e.ID, &e.Type, &e.Phase); err != nil {
			return nil, fmt.Errorf("query expressions: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a unit and everything stored for it.
func (d *DB) Delete(ctx context.Context, unitID string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM units WHERE id = ?", unitID)
	if err != nil {
		return fmt.Errorf("delete unit %s: %w", unitID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete unit %s: %w", unitID, ErrUnitNotFound)
	}
	return nil
}

func (d *DB) requireUnit(ctx context.Context, unitID string) error {
	var id string
	err := d.db.QueryRowContext(ctx, "SELECT id FROM units WHERE id = ?", unitID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("unit %s: %w", unitID, ErrUnitNotFound)
	}
	if err != nil {
		return fmt.Errorf("unit %s: %w", unitID, err)
	}
	return nil
}

func (d *DB) querySymbols(ctx context.Context, query string, args ...any) ([]Symbol, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		var s Symbol
		if err := rows.Scan(&s.Scope, &s.Name, &s.Kind, &s.Type, &s.Phase, &s.Reassignable, &s.Docs); err != nil {
			return nil, fmt.Errorf("query symbols: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
