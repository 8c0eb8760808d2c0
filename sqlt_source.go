package sqlt

import r "reflect"

/*
Compiled SQL template. The two implementations are `DynamicSource`, which
re-evaluates its node tree on every call, and `RawSource`, produced for
templates whose text never varies. Both are immutable after construction and
safe for concurrent use; use `ParseScript` or `ParseScriptString` to obtain
one.
*/
type Source interface {
	Bound(arg any) (Bound, error)
}

/*
Describes one ordinal parameter of a bound statement: the property path used
to resolve its value, and the optional hints declared in the placeholder.
*/
type Param struct {
	Name    string
	Type    r.Type
	DbType  string
	Handler TypeHandler
}

/*
Result of binding a template to an invocation argument. `Text` is final SQL
with ordinal parameters such as "$1". `Params` describes the ordinals in
matching order. `Binds` holds values created during evaluation, by "bind"
declarations and by loop iterations; when resolving parameter values, these
take priority over the invocation argument.
*/
type Bound struct {
	Text   string
	Params []Param
	Binds  map[string]any
}

/*
Resolves the actual parameter values for the bound statement, in ordinal
order, suitable for passing to a database driver. Must receive the same
argument that produced this `Bound`. Hints are applied here: values are
converted to the declared type, then passed through the declared handler.
*/
func (self Bound) Args(arg any) (_ []any, err error) {
	defer rec(&err)

	src := ArgSourceOf(arg)
	lookup := func(name string) (any, bool) {
		val, ok := self.Binds[name]
		if ok {
			return val, true
		}
		return src.Got(name)
	}

	out := make([]any, 0, len(self.Params))
	for _, param := range self.Params {
		out = append(out, param.resolve(lookup))
	}
	return out, nil
}

func (self Param) resolve(lk lookupFn) any {
	val := exprFor(self.Name).eval(lk)

	if self.Type != nil && val != nil {
		rval := r.ValueOf(val)
		if rval.Type() != self.Type {
			if !rval.Type().ConvertibleTo(self.Type) {
				panic(errExpr(
					`resolving parameters`,
					errf(
						`can't convert value of type %v to %v for parameter %q`,
						rval.Type(), self.Type, self.Name,
					),
				))
			}
			val = rval.Convert(self.Type).Interface()
		}
	}

	if self.Handler != nil {
		var err error
		val, err = self.Handler.Encode(val)
		if err != nil {
			panic(errExpr(`resolving parameters`, err))
		}
	}

	return val
}

/*
Template whose text depends on the invocation argument. Walks the compiled
node tree on every call, then rewrites the resulting text, replacing
placeholders with ordinal parameters.
*/
type DynamicSource struct{ Root Node }

// Implement `Source`.
func (self DynamicSource) Bound(arg any) (_ Bound, err error) {
	defer rec(&err)

	ctx := newCtx(arg)
	self.Root.Append(ctx)

	text, params := rewriteOrdinal(ctx.String())
	return Bound{Text: text, Params: params, Binds: ctx.binds}, nil
}

/*
Template whose text never varies between calls. The text is evaluated and
rewritten once, at parse time; binding is a copy.
*/
type RawSource struct {
	Text   string
	Params []Param
}

// Implement `Source`.
func (self RawSource) Bound(any) (Bound, error) {
	return Bound{Text: self.Text, Params: self.Params}, nil
}

/*
Evaluates a static node tree once. Called at parse time, inside the panic
recovery of `ParseScript`, so placeholder hint errors in static templates
surface as build errors.
*/
func makeRawSource(root Node) RawSource {
	ctx := newCtx(nil)
	root.Append(ctx)

	text, params := rewriteOrdinal(ctx.String())
	return RawSource{Text: text, Params: params}
}
