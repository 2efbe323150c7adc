package typesystem_test

import (
	"testing"

	"github.com/funvibe/phasec/internal/symbols"
	ts "github.com/funvibe/phasec/internal/typesystem"
)

func fn(types *ts.Types, phase ts.Phase, ret ts.Type, params ...ts.Type) *ts.Function {
	f := &ts.Function{ReturnType: ret, Phase: phase}
	for i, p := range params {
		f.Parameters = append(f.Parameters, ts.FunctionParameter{Name: string(rune('a' + i)), Type: p})
	}
	types.AddType(f)
	return f
}

func memberEnv(types *ts.Types, phase ts.Phase, parent *symbols.SymbolEnv) *symbols.SymbolEnv {
	return symbols.NewSymbolEnv(parent, types.VoidType(), false, false, phase, 0)
}

func defineMethod(t *testing.T, env *symbols.SymbolEnv, name string, f *ts.Function) {
	t.Helper()
	err := env.Define(name, ts.VariableInfo{Name: name, Type: f, Phase: f.Phase, Kind: ts.InstanceMember}, ts.Top)
	if err != nil {
		t.Fatal(err)
	}
}

// =============================================================================
// Phase lattice
// =============================================================================

func TestPhaseSubtyping(t *testing.T) {
	phases := []ts.Phase{ts.Preflight, ts.Inflight, ts.Independent}
	for _, a := range phases {
		for _, b := range phases {
			want := a == ts.Independent || a == b
			if got := a.IsSubtypeOf(b); got != want {
				t.Errorf("%s.IsSubtypeOf(%s) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestPhaseCanCallTo(t *testing.T) {
	tests := []struct {
		caller, callee ts.Phase
		want           bool
	}{
		{ts.Preflight, ts.Preflight, true},
		{ts.Preflight, ts.Inflight, false},
		{ts.Preflight, ts.Independent, true},
		{ts.Inflight, ts.Inflight, true},
		{ts.Inflight, ts.Preflight, false},
		{ts.Inflight, ts.Independent, true},
		{ts.Independent, ts.Independent, true},
		{ts.Independent, ts.Preflight, false},
	}
	for _, tt := range tests {
		if got := tt.caller.CanCallTo(tt.callee); got != tt.want {
			t.Errorf("%s.CanCallTo(%s) = %v, want %v", tt.caller, tt.callee, got, tt.want)
		}
	}
}

// =============================================================================
// Subtype relation
// =============================================================================

func TestSubtypeReflexive(t *testing.T) {
	types := ts.NewTypes()
	all := []ts.Type{
		types.NumberType(), types.StringType(), types.BoolType(), types.DurationType(),
		types.VoidType(), types.JsonType(), types.MutJsonType(), types.NilType(), types.ErrorType(),
		types.MakeOption(types.StringType()),
		types.Collection(ts.Array, types.NumberType()),
		fn(types, ts.Inflight, types.VoidType(), types.StringType()),
		types.AddType(&ts.Enum{Name: "Color", Values: []string{"RED"}}),
	}
	for _, typ := range all {
		if !ts.IsSubtypeOf(typ, typ) {
			t.Errorf("%s should be a subtype of itself", typ)
		}
	}
}

func TestAnythingAccepts(t *testing.T) {
	types := ts.NewTypes()
	if !ts.IsSubtypeOf(types.NumberType(), types.AnythingType()) || !ts.IsSubtypeOf(types.AnythingType(), types.NumberType()) {
		t.Error("any should be compatible in both directions")
	}
}

func TestOptionalSubtyping(t *testing.T) {
	types := ts.NewTypes()
	str := types.StringType()
	optStr := types.MakeOption(str)
	if !ts.IsSubtypeOf(str, optStr) {
		t.Error("str should be a subtype of str?")
	}
	if ts.IsSubtypeOf(optStr, str) {
		t.Error("str? should not be a subtype of str")
	}
	if !ts.IsSubtypeOf(types.NilType(), optStr) {
		t.Error("nil should be a subtype of str?")
	}
	if ts.IsSubtypeOf(types.NilType(), str) {
		t.Error("nil should not be a subtype of str")
	}
	if types.MakeOption(optStr) != optStr {
		t.Error("MakeOption should be idempotent")
	}
	if !ts.IsStrictSubtype(str, optStr) {
		t.Error("str should be a strict subtype of str?")
	}
}

func TestCollectionCovariance(t *testing.T) {
	types := ts.NewTypes()
	arrNum := types.Collection(ts.Array, types.NumberType())
	arrOptNum := types.Collection(ts.Array, types.MakeOption(types.NumberType()))
	mutArrNum := types.Collection(ts.MutArray, types.NumberType())
	if !ts.IsSubtypeOf(arrNum, arrOptNum) {
		t.Error("Array<num> should be a subtype of Array<num?>")
	}
	if ts.IsSubtypeOf(arrOptNum, arrNum) {
		t.Error("Array<num?> should not be a subtype of Array<num>")
	}
	if ts.IsSubtypeOf(mutArrNum, arrNum) || ts.IsSubtypeOf(arrNum, mutArrNum) {
		t.Error("different collection kinds are unrelated")
	}
	if !ts.IsSameType(arrNum, types.Collection(ts.Array, types.NumberType())) {
		t.Error("structurally equal collections should be the same type")
	}
}

func TestFunctionSubtypingAcrossPhases(t *testing.T) {
	types := ts.NewTypes()
	inflight := fn(types, ts.Inflight, types.VoidType())
	preflight := fn(types, ts.Preflight, types.VoidType())
	independent := fn(types, ts.Independent, types.VoidType())
	if ts.IsSubtypeOf(inflight, preflight) || ts.IsSubtypeOf(preflight, inflight) {
		t.Error("functions of different phases are unrelated")
	}
	if !ts.IsSubtypeOf(independent, inflight) {
		t.Error("a phase-independent function can be used as an inflight one")
	}
}

func TestFunctionReturnTypes(t *testing.T) {
	types := ts.NewTypes()
	retNum := fn(types, ts.Inflight, types.NumberType())
	retStr := fn(types, ts.Inflight, types.StringType())
	retVoid := fn(types, ts.Inflight, types.VoidType())
	if ts.IsSubtypeOf(retNum, retStr) || ts.IsSubtypeOf(retStr, retNum) {
		t.Error("incompatible return types")
	}
	if !ts.IsSubtypeOf(retNum, retVoid) || !ts.IsSubtypeOf(retStr, retVoid) {
		t.Error("any return type is accepted where void is expected")
	}
}

func TestFunctionParameterContravariance(t *testing.T) {
	types := ts.NewTypes()
	strFn := fn(types, ts.Inflight, types.VoidType(), types.StringType())
	optStrFn := fn(types, ts.Inflight, types.VoidType(), types.MakeOption(types.StringType()))
	numFn := fn(types, ts.Inflight, types.VoidType(), types.NumberType())
	if !ts.IsSubtypeOf(optStrFn, strFn) {
		t.Error("(str?) => void should be a subtype of (str) => void")
	}
	if ts.IsSubtypeOf(strFn, optStrFn) {
		t.Error("(str) => void should not be a subtype of (str?) => void")
	}
	if ts.IsSubtypeOf(numFn, strFn) || ts.IsSubtypeOf(strFn, numFn) {
		t.Error("incompatible parameter types")
	}
}

func TestMinParameters(t *testing.T) {
	types := ts.NewTypes()
	st := types.AddType(&ts.Struct{Name: "Props"})
	f := fn(types, ts.Inflight, types.VoidType(),
		types.NumberType(), types.MakeOption(types.StringType()), types.AnythingType(), st)
	if got := ts.MinParameters(f); got != 1 {
		t.Errorf("MinParameters = %d, want 1", got)
	}
	g := fn(types, ts.Inflight, types.VoidType(), types.MakeOption(types.StringType()), types.NumberType())
	if got := ts.MinParameters(g); got != 2 {
		t.Errorf("only the trailing run is omittable, got %d", got)
	}
}

func TestClassInheritance(t *testing.T) {
	types := ts.NewTypes()
	baseEnv := memberEnv(types, ts.Preflight, nil)
	base := types.AddType(&ts.Class{Name: "Base", Env: baseEnv, Phase: ts.Preflight}).(*ts.Class)
	derived := types.AddType(&ts.Class{Name: "Derived", Parent: base, Env: memberEnv(types, ts.Preflight, baseEnv), Phase: ts.Preflight})
	if !ts.IsSubtypeOf(derived, base) {
		t.Error("Derived should be a subtype of Base")
	}
	if ts.IsSubtypeOf(base, derived) {
		t.Error("Base should not be a subtype of Derived")
	}
	other := types.AddType(&ts.Class{Name: "Base", Env: memberEnv(types, ts.Preflight, nil), Phase: ts.Preflight})
	if ts.IsSubtypeOf(other, base) {
		t.Error("classes are nominal: same name is not enough")
	}
}

func TestInterfaceConformance(t *testing.T) {
	types := ts.NewTypes()
	parentIface := types.AddType(&ts.Interface{Name: "IParent", Env: memberEnv(types, ts.Preflight, nil)})
	childIface := types.AddType(&ts.Interface{Name: "IChild", Extends: []ts.Type{parentIface}, Env: memberEnv(types, ts.Preflight, nil)})
	impl := types.AddType(&ts.Class{Name: "Impl", Implements: []ts.Type{childIface}, Env: memberEnv(types, ts.Preflight, nil), Phase: ts.Preflight})
	if !ts.IsSubtypeOf(childIface, parentIface) {
		t.Error("IChild extends IParent")
	}
	if !ts.IsSubtypeOf(impl, parentIface) {
		t.Error("Impl implements IChild which extends IParent")
	}
	if ts.IsSubtypeOf(types.StringType(), parentIface) {
		t.Error("only classes and closures can satisfy interfaces")
	}
}

func TestClosureClassDuckTyping(t *testing.T) {
	types := ts.NewTypes()
	handle := fn(types, ts.Inflight, types.StringType(), types.StringType())

	classEnv := memberEnv(types, ts.Preflight, nil)
	defineMethod(t, classEnv, "handle", handle)
	closureClass := types.AddType(&ts.Class{Name: "Handler", Env: classEnv, Phase: ts.Preflight})

	fnType := fn(types, ts.Inflight, types.StringType(), types.StringType())
	if !ts.IsSubtypeOf(closureClass, fnType) {
		t.Error("closure class should be usable as a matching inflight function")
	}
	if closureClass.String() != handle.String() {
		t.Errorf("closure class displays as %q, want its handle signature", closureClass.String())
	}

	ifaceEnv := memberEnv(types, ts.Preflight, nil)
	defineMethod(t, ifaceEnv, "handle", fn(types, ts.Inflight, types.StringType(), types.StringType()))
	iface := types.AddType(&ts.Interface{Name: "IHandler", Env: ifaceEnv})
	if !ts.IsSubtypeOf(closureClass, iface) {
		t.Error("closure class should satisfy a single-handle interface")
	}
	if !ts.IsSubtypeOf(fnType, iface) {
		t.Error("an inflight function should satisfy a single-handle interface")
	}
	if ts.IsSubtypeOf(fn(types, ts.Preflight, types.StringType(), types.StringType()), iface) {
		t.Error("a preflight function cannot satisfy an inflight handler interface")
	}

	twoEnv := memberEnv(types, ts.Preflight, nil)
	defineMethod(t, twoEnv, "handle", fn(types, ts.Inflight, types.StringType(), types.StringType()))
	defineMethod(t, twoEnv, "other", fn(types, ts.Inflight, types.VoidType()))
	twoMethods := types.AddType(&ts.Interface{Name: "ITwo", Env: twoEnv})
	if ts.IsSubtypeOf(closureClass, twoMethods) {
		t.Error("an interface with two inflight methods is not a closure interface")
	}
	if twoMethods.String() != "inflight (a: str): str" {
		t.Errorf("interface with inflight handle displays as %q", twoMethods.String())
	}
}

func TestStructAndEnumSubtyping(t *testing.T) {
	types := ts.NewTypes()
	base := types.AddType(&ts.Struct{Name: "Base", Env: memberEnv(types, ts.Independent, nil)})
	derived := types.AddType(&ts.Struct{Name: "Derived", Extends: []ts.Type{base}, Env: memberEnv(types, ts.Independent, nil)})
	if !ts.IsSubtypeOf(derived, base) || ts.IsSubtypeOf(base, derived) {
		t.Error("struct extension is one-directional")
	}
	e1 := types.AddType(&ts.Enum{Name: "Color"})
	e2 := types.AddType(&ts.Enum{Name: "Color"})
	e3 := types.AddType(&ts.Enum{Name: "Shape"})
	if !ts.IsSubtypeOf(e1, e2) || ts.IsSubtypeOf(e1, e3) {
		t.Error("enums compare by name")
	}
}
