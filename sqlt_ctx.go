package sqlt

import (
	r "reflect"
	"strconv"

	"github.com/mitranim/refut"
)

/*
Per-invocation evaluation context. Owns the accumulating SQL text buffer, a
scope chain of ephemeral bindings, and the invocation argument wrapped for
property lookup. Created fresh for each call and discarded afterwards; the
compiled node tree never stores or mutates one, which is what makes compiled
templates safe for concurrent use.
*/
type Ctx struct {
	Arg    ArgSource
	text   []byte
	scopes []map[string]any
	binds  map[string]any
	uniq   *int
}

func newCtx(arg any) *Ctx {
	return &Ctx{
		Arg:    ArgSourceOf(arg),
		scopes: []map[string]any{make(map[string]any)},
		binds:  make(map[string]any),
		uniq:   new(int),
	}
}

/*
Layered copy. Shares the argument, scope chain, forwarded bindings, and
unique counter with the original, but accumulates text into its own buffer.
Used by nodes that must inspect generated text before contributing it.
*/
func (self *Ctx) fork() *Ctx {
	out := *self
	out.text = nil
	return &out
}

/*
Resolves a bare name: ephemeral bindings first, innermost scope first, then
the invocation argument.
*/
func (self *Ctx) lookup(name string) (any, bool) {
	for ind := len(self.scopes) - 1; ind >= 0; ind-- {
		val, ok := self.scopes[ind][name]
		if ok {
			return val, true
		}
	}
	return self.Arg.Got(name)
}

func (self *Ctx) push() { self.scopes = append(self.scopes, make(map[string]any)) }

func (self *Ctx) pop() { self.scopes = self.scopes[:len(self.scopes)-1] }

// Binds a name in the current scope only. Used for loop item/index variables,
// which must not leak into the bound statement.
func (self *Ctx) setLocal(name string, val any) {
	self.scopes[len(self.scopes)-1][name] = val
}

/*
Binds a name in the current scope and records it for the bound statement, so
the execution layer can resolve it later. Used by "bind" declarations.
*/
func (self *Ctx) bind(name string, val any) {
	self.setLocal(name, val)
	self.binds[name] = val
}

// Records a synthetic loop binding for the bound statement without making it
// visible to expressions.
func (self *Ctx) bindSynthetic(name string, val any) {
	self.binds[name] = val
}

// Returns the next unique number for synthetic loop binding names. The
// counter is shared across forks within one invocation.
func (self *Ctx) nextUniq() int {
	out := *self.uniq
	*self.uniq++
	return out
}

// Appends the provided string, delimiting it from the previous text with a
// space if necessary.
func (self *Ctx) Str(val string) {
	if val != `` {
		self.text = appendMaybeSpaced(self.text, val)
	}
}

// Returns the text accumulated so far.
func (self *Ctx) String() string { return bytesToMutableString(self.text) }

/*
Read-only view of the invocation argument: "get named property of a value".
Implementations wrap keyed mappings, bean-like structs, and single scalar
values. The boolean reports whether the name is known; a known name may still
resolve to nil.
*/
type ArgSource interface {
	Got(string) (any, bool)
}

// Wraps an invocation argument in the `ArgSource` suited for its shape.
func ArgSourceOf(arg any) ArgSource {
	if isNil(arg) {
		return NilArg{}
	}

	rval := valueDeref(r.ValueOf(arg))
	typ := rval.Type()

	switch {
	case typ.Kind() == r.Map && (typ.Key().Kind() == r.String || typ.Key().Kind() == r.Interface):
		return MapArg{rval}
	case typ.Kind() == r.Struct && typ != typeTime:
		return StructArg{rval}
	default:
		return ScalarArg{arg}
	}
}

/*
Argument source for a missing argument. Every name is known and resolves to
nil, which allows `x != null` guards to behave as if evaluated against an
empty mapping.
*/
type NilArg struct{}

// Implement `ArgSource`.
func (NilArg) Got(string) (any, bool) { return nil, true }

// Argument source for keyed mappings. A missing key resolves to nil.
type MapArg [1]r.Value

// Implement `ArgSource`.
func (self MapArg) Got(name string) (any, bool) {
	if refut.IsRvalNil(self[0]) {
		return nil, true
	}
	return mapProp(self[0], name), true
}

/*
Argument source for bean-like structs. Reads fields by Go name or "db" tag
ident, and nullary single-return methods by name, using a cached field/method
path map. A missing member is unknown, which surfaces as an expression error.
*/
type StructArg [1]r.Value

// Implement `ArgSource`.
func (self StructArg) Got(name string) (any, bool) {
	path, ok := loadStructPathMap(self[0].Type())[name]
	if !ok {
		return nil, false
	}

	if path.FieldIndex != nil {
		return self[0].FieldByIndex(path.FieldIndex).Interface(), true
	}

	meth := self[0].Method(path.MethodIndex)
	if meth.IsValid() {
		reqGetter(self[0].Type(), meth.Type(), name)
		return meth.Call(nil)[0].Interface(), true
	}

	return nil, false
}

/*
Argument source for a single scalar value, treated as an implicit root
property: every top-level name resolves to the value itself.
*/
type ScalarArg [1]any

// Implement `ArgSource`.
func (self ScalarArg) Got(string) (any, bool) { return self[0], true }

// Synthetic binding name for one "foreach" iteration variable, such as
// "__frch_item_0".
func loopBindingName(name string, uniq int) string {
	return loopBindingPrefix + name + `_` + strconv.Itoa(uniq)
}

const loopBindingPrefix = `__frch_`
