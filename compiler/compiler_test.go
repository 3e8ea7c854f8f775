package compiler

import "testing"

type fakeTable map[string]any

func (f fakeTable) Resolve(name string) (any, error) {
	if fn, ok := f[name]; ok {
		return fn, nil
	}
	return nil, errNotFound(name)
}

type errNotFound string

func (e errNotFound) Error() string { return "not found: " + string(e) }

func TestValidatePassesWhenEverySymbolResolves(t *testing.T) {
	table := fakeTable{"hash": func() {}, "combineHash": func() {}}
	plan := Plan{Name: "q1", Symbols: []string{"hash", "combineHash"}}
	if err := Validate(plan, table); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateFailsOnUnresolvedSymbol(t *testing.T) {
	table := fakeTable{"hash": func() {}}
	plan := Plan{Name: "q1", Symbols: []string{"hash", "missing"}}
	if err := Validate(plan, table); err == nil {
		t.Fatalf("Validate() = nil, want error for missing symbol")
	}
}
