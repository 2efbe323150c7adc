package symdb_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/checker"
	"github.com/funvibe/phasec/internal/importer"
	"github.com/funvibe/phasec/internal/symdb"
	"github.com/funvibe/phasec/internal/typesystem"
)

func openDB(t *testing.T) *symdb.DB {
	t.Helper()
	db, err := symdb.Open(filepath.Join(t.TempDir(), "symbols.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func checkedProgram(t *testing.T) *checker.Result {
	t.Helper()
	b := ast.NewBuilder("main.ph")
	handler := b.Func(b.Sig(typesystem.Inflight, nil), b.Let("inner", b.Str("x")))
	prog := b.Program(
		b.Let("count", b.Num(1)),
		b.Var("name", b.Str("phasec")),
		b.Let("handler", b.Closure(handler)),
	)
	res := checker.New(typesystem.NewTypes(), importer.NewTypeSystem(nil)).Check(prog)
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected check errors: %v", res.Errors)
	}
	return res
}

func findSymbol(syms []symdb.Symbol, name string) (symdb.Symbol, bool) {
	for _, s := range syms {
		if s.Name == name {
			return s, true
		}
	}
	return symdb.Symbol{}, false
}

func TestStoreAndQuery(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	unit, err := db.Store(ctx, "main.ph", checkedProgram(t))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if unit.ID == "" || unit.File != "main.ph" || unit.Errors != 0 {
		t.Fatalf("unexpected unit %+v", unit)
	}

	syms, err := db.Symbols(ctx, unit.ID)
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}

	count, ok := findSymbol(syms, "count")
	if !ok {
		t.Fatalf("count not stored")
	}
	if count.Scope != symdb.RootScope || count.Type != "num" || count.Phase != "preflight" || count.Reassignable {
		t.Errorf("unexpected count symbol %+v", count)
	}

	name, ok := findSymbol(syms, "name")
	if !ok || !name.Reassignable {
		t.Errorf("expected name to be stored as reassignable, got %+v", name)
	}

	inner, ok := findSymbol(syms, "inner")
	if !ok {
		t.Fatalf("closure local not stored")
	}
	if inner.Scope == symdb.RootScope || inner.Phase != "inflight" {
		t.Errorf("unexpected closure local %+v", inner)
	}

	if _, ok := findSymbol(syms, "log"); !ok {
		t.Errorf("globals not stored")
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	unit, err := db.Store(ctx, "main.ph", checkedProgram(t))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := db.Lookup(ctx, unit.ID, "handler")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one handler, got %d", len(got))
	}
	if got[0].Type != "inflight (): void" {
		t.Errorf("handler type = %q", got[0].Type)
	}

	got, err = db.Lookup(ctx, unit.ID, "missing")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no symbols, got %v", got)
	}
}

func TestExpressions(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	unit, err := db.Store(ctx, "main.ph", checkedProgram(t))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	exprs, err := db.Expressions(ctx, unit.ID)
	if err != nil {
		t.Fatalf("expressions: %v", err)
	}
	if len(exprs) == 0 {
		t.Fatalf("no expressions stored")
	}
	for i := 1; i < len(exprs); i++ {
		if exprs[i].ID <= exprs[i-1].ID {
			t.Fatalf("expressions out of order: %v", exprs)
		}
	}
}

func TestUnitsAndDelete(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	first, err := db.Store(ctx, "a.ph", checkedProgram(t))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := db.Store(ctx, "b.ph", checkedProgram(t)); err != nil {
		t.Fatalf("store: %v", err)
	}

	units, err := db.Units(ctx)
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}

	if err := db.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Symbols(ctx, first.ID); !errors.Is(err, symdb.ErrUnitNotFound) {
		t.Errorf("expected ErrUnitNotFound after delete, got %v", err)
	}
	if err := db.Delete(ctx, first.ID); !errors.Is(err, symdb.ErrUnitNotFound) {
		t.Errorf("expected ErrUnitNotFound deleting twice, got %v", err)
	}
}

func TestUnknownUnit(t *testing.T) {
	db := openDB(t)
	if _, err := db.Lookup(context.Background(), "no-such-unit", "x"); !errors.Is(err, symdb.ErrUnitNotFound) {
		t.Errorf("expected ErrUnitNotFound, got %v", err)
	}
}
