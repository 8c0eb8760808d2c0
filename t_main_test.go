package sqlt

import (
	"errors"
	"fmt"
	r "reflect"
	"runtime"
	"strings"
	"testing"
)

type Internal struct {
	Id   string `json:"internalId"   db:"id"`
	Name string `json:"internalName" db:"name"`
}

type External struct {
	Id       string   `json:"externalId"       db:"id"`
	Name     string   `json:"externalName"     db:"name"`
	Internal Internal `json:"externalInternal" db:"internal"`
}

type Void struct{}

func (Void) GetVal() any { return `val` }

type UnitStruct struct {
	One any `db:"one" json:"one"`
}

func (self UnitStruct) GetOne() any { return self.One }

type list = []any

type dict = map[string]any

func tParse(t testing.TB, src string) Source {
	t.Helper()
	out, err := ParseScriptString(src)
	if err != nil {
		t.Fatalf(`failed to parse template: %+v`, err)
	}
	return out
}

func tBound(t testing.TB, src string, arg any) Bound {
	t.Helper()
	out, err := tParse(t, src).Bound(arg)
	if err != nil {
		t.Fatalf(`failed to bind template: %+v`, err)
	}
	return out
}

// Asserts the final text produced by binding the given template text.
func testScript(t testing.TB, exp, src string, arg any) {
	t.Helper()
	eq(t, exp, tBound(t, src, arg).Text)
}

func testScriptArgs(t testing.TB, expText string, expArgs list, src string, arg any) {
	t.Helper()

	bound := tBound(t, src, arg)
	eq(t, expText, bound.Text)

	args, err := bound.Args(arg)
	if err != nil {
		t.Fatalf(`failed to resolve arguments: %+v`, err)
	}
	eq(t, expArgs, args)
}

func testParseErr(t testing.TB, msg, src string) {
	t.Helper()

	out, err := ParseScriptString(src)
	if err == nil {
		t.Fatalf(`expected parsing %q to fail, got %#v`, src, out)
	}
	if !errors.Is(err, ErrBuild{}) {
		t.Fatalf(`expected a build error, got %+v`, err)
	}
	if !strings.Contains(err.Error(), msg) {
		t.Fatalf(`expected error containing %q, got %q`, msg, err.Error())
	}
}

func testBoundErr(t testing.TB, msg, src string, arg any) {
	t.Helper()

	out, err := tParse(t, src).Bound(arg)
	if err == nil {
		t.Fatalf(`expected binding %q to fail, got %#v`, src, out)
	}
	if !errors.Is(err, ErrExpr{}) {
		t.Fatalf(`expected an expression error, got %+v`, err)
	}
	if !strings.Contains(err.Error(), msg) {
		t.Fatalf(`expected error containing %q, got %q`, msg, err.Error())
	}
}

// Shortcut for evaluating a hand-built node tree.
func appendNode(node Node) string {
	ctx := newCtx(nil)
	node.Append(ctx)
	return ctx.String()
}

func lookupIn(vals dict) lookupFn {
	return func(name string) (any, bool) {
		val, ok := vals[name]
		return val, ok
	}
}

func evalStr(src string, vals dict) any {
	return exprFor(src).eval(lookupIn(vals))
}

func eq(t testing.TB, exp, act any) {
	t.Helper()
	if !r.DeepEqual(exp, act) {
		t.Fatalf(`
expected (detailed):
	%#[1]v
actual (detailed):
	%#[2]v
expected (simple):
	%[1]v
actual (simple):
	%[2]v
`, exp, act)
	}
}

func panics(t testing.TB, msg string, fun func()) {
	t.Helper()
	val := catchAny(fun)

	if val == nil {
		t.Fatalf(`expected %v to panic, found no panic`, funcName(fun))
	}

	str := fmt.Sprint(val)
	if !strings.Contains(str, msg) {
		t.Fatalf(
			`expected %v to panic with a message containing %q, found %q`,
			funcName(fun), msg, str,
		)
	}
}

func funcName(val any) string {
	return runtime.FuncForPC(r.ValueOf(val).Pointer()).Name()
}

func catchAny(fun func()) (val any) {
	defer recAny(&val)
	fun()
	return
}

func recAny(ptr *any) { *ptr = recover() }
