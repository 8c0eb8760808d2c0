package sqlt

import (
	r "reflect"
	"sort"
	"strconv"
	"strings"
)

/*
Expression language used by "if"/"when" tests, "${}" substitution markers,
"bind" values, and "foreach" collection expressions. Deliberately small:

	* Literals: decimal integers, floats, 'single quoted strings' (with ''
	  escaping), `true`, `false`, `null`.

	* Property paths: `ident`, `outer.inner`, `items[0]`, `dict[key]`. The
	  head identifier resolves against ephemeral bindings (innermost scope
	  first), then against the invocation argument.

	* Comparisons: `==` `!=` `<` `<=` `>` `>=`. Numbers of any kind compare
	  numerically; strings lexicographically. Equality across mismatched
	  types is false; ordering across mismatched types is an error.

	* Membership: `val in collection` over slices, arrays, and map values.

	* Logical: `and` `or` `not`, with `&&` `||` `!` as aliases.

Expressions are parsed once and memoized; evaluation is allocation-light and
happens per call.
*/
type exprNode interface {
	eval(lk lookupFn) any
}

/*
Resolves a bare name against some lookup chain. The boolean indicates whether
the name is known at all; a known name may still resolve to nil.
*/
type lookupFn func(name string) (any, bool)

func exprFor(src string) exprNode { return exprCache.Get(src) }

var exprCache = cacheOf(func(src string) exprNode {
	par := exprParser{src: src}
	out := par.parseOr()
	par.skipWhitespace()
	if par.more() {
		panic(errBuild(
			`parsing expression`,
			errf(`unexpected %q in expression %q`, par.rest(), src),
		))
	}
	return out
})

type exprLit struct{ val any }

func (self exprLit) eval(lookupFn) any { return self.val }

type exprUnaryNot struct{ val exprNode }

func (self exprUnaryNot) eval(lk lookupFn) any { return !isTruthy(self.val.eval(lk)) }

type exprBinary struct {
	op  string
	lhs exprNode
	rhs exprNode
}

func (self exprBinary) eval(lk lookupFn) any {
	switch self.op {
	case `and`:
		return isTruthy(self.lhs.eval(lk)) && isTruthy(self.rhs.eval(lk))
	case `or`:
		return isTruthy(self.lhs.eval(lk)) || isTruthy(self.rhs.eval(lk))
	case `in`:
		return contains(self.rhs.eval(lk), self.lhs.eval(lk))
	default:
		return compare(self.op, self.lhs.eval(lk), self.rhs.eval(lk))
	}
}

type exprSeg struct {
	name  string
	index exprNode
}

type exprPath struct {
	head string
	segs []exprSeg
}

func (self exprPath) eval(lk lookupFn) any {
	val, ok := lk(self.head)
	if !ok {
		panic(errExpr(
			`evaluating expression`,
			errf(`unable to resolve property %q`, self.head),
		))
	}

	for _, seg := range self.segs {
		if seg.index != nil {
			val = indexOf(val, seg.index.eval(lk))
		} else {
			val = propOf(val, seg.name)
		}
	}
	return val
}

type exprParser struct {
	src    string
	cursor int
}

func (self *exprParser) parseOr() exprNode {
	out := self.parseAnd()
	for self.skippedWord(`or`) || self.skippedString(`||`) {
		out = exprBinary{`or`, out, self.parseAnd()}
	}
	return out
}

func (self *exprParser) parseAnd() exprNode {
	out := self.parseNot()
	for self.skippedWord(`and`) || self.skippedString(`&&`) {
		out = exprBinary{`and`, out, self.parseNot()}
	}
	return out
}

func (self *exprParser) parseNot() exprNode {
	if self.skippedWord(`not`) || self.skippedBang() {
		return exprUnaryNot{self.parseNot()}
	}
	return self.parseComparison()
}

func (self *exprParser) parseComparison() exprNode {
	lhs := self.parsePrimary()
	op := self.comparisonOp()
	if op == `` {
		return lhs
	}
	return exprBinary{op, lhs, self.parsePrimary()}
}

func (self *exprParser) comparisonOp() string {
	self.skipWhitespace()
	for _, op := range comparisonOps {
		if self.skippedString(op) {
			return op
		}
	}
	if self.skippedWord(`in`) {
		return `in`
	}
	return ``
}

// Two-byte operators must precede their one-byte prefixes.
var comparisonOps = []string{`==`, `!=`, `<=`, `>=`, `<`, `>`}

func (self *exprParser) parsePrimary() exprNode {
	self.skipWhitespace()
	if !self.more() {
		panic(errBuild(
			`parsing expression`,
			errf(`unexpected end of expression %q`, self.src),
		))
	}

	head := self.headByte()

	if head == '(' {
		self.cursor++
		out := self.parseOr()
		self.reqByte(')')
		return out
	}

	if head == quoteSingle {
		return exprLit{self.parseString()}
	}

	if charsetDigitDec.has(head) || head == '-' {
		return exprLit{self.parseNumber()}
	}

	if charsetIdentStart.has(head) {
		word := self.parseIdent()
		switch word {
		case `true`:
			return exprLit{true}
		case `false`:
			return exprLit{false}
		case `null`:
			return exprLit{nil}
		default:
			return self.parsePath(word)
		}
	}

	panic(errBuild(
		`parsing expression`,
		errf(`unexpected %q in expression %q`, self.rest(), self.src),
	))
}

func (self *exprParser) parsePath(head string) exprNode {
	out := exprPath{head: head}
	for {
		if self.skippedByteImmediate('.') {
			out.segs = append(out.segs, exprSeg{name: self.parseIdent()})
			continue
		}
		if self.skippedByteImmediate('[') {
			index := self.parseOr()
			self.reqByte(']')
			out.segs = append(out.segs, exprSeg{index: index})
			continue
		}
		return out
	}
}

func (self *exprParser) parseIdent() string {
	self.skipWhitespace()
	start := self.cursor
	if self.more() && charsetIdentStart.has(self.headByte()) {
		self.cursor++
		for self.more() && charsetIdent.has(self.headByte()) {
			self.cursor++
		}
	}
	if self.cursor == start {
		panic(errBuild(
			`parsing expression`,
			errf(`expected identifier at %q in expression %q`, self.rest(), self.src),
		))
	}
	return self.src[start:self.cursor]
}

// Supports SQL-style quote escaping: '' inside a string is a literal quote.
func (self *exprParser) parseString() string {
	self.cursor++ // opening quote
	var buf strings.Builder
	for self.more() {
		char := self.headByte()
		self.cursor++
		if char != quoteSingle {
			buf.WriteByte(char)
			continue
		}
		if self.more() && self.headByte() == quoteSingle {
			buf.WriteByte(quoteSingle)
			self.cursor++
			continue
		}
		return buf.String()
	}
	panic(errBuild(
		`parsing expression`,
		errf(`unterminated string literal in expression %q`, self.src),
	))
}

func (self *exprParser) parseNumber() any {
	start := self.cursor
	if self.headByte() == '-' {
		self.cursor++
	}
	for self.more() && charsetDigitDec.has(self.headByte()) {
		self.cursor++
	}
	if self.more() && self.headByte() == '.' {
		self.cursor++
		for self.more() && charsetDigitDec.has(self.headByte()) {
			self.cursor++
		}
		out, err := strconv.ParseFloat(self.src[start:self.cursor], 64)
		if err != nil {
			panic(errBuild(
				`parsing expression`,
				errf(`malformed number at %q in expression %q`, self.src[start:], self.src),
			))
		}
		return out
	}

	out, err := strconv.ParseInt(self.src[start:self.cursor], 10, 64)
	if err != nil {
		panic(errBuild(
			`parsing expression`,
			errf(`malformed number at %q in expression %q`, self.src[start:], self.src),
		))
	}
	return out
}

func (self *exprParser) skipWhitespace() {
	for self.more() && charsetWhitespace.has(self.headByte()) {
		self.cursor++
	}
}

func (self *exprParser) skippedWord(val string) bool {
	self.skipWhitespace()
	if !strings.HasPrefix(self.rest(), val) {
		return false
	}
	next := self.cursor + len(val)
	if next < len(self.src) && charsetIdent.has(self.src[next]) {
		return false
	}
	self.cursor = next
	return true
}

func (self *exprParser) skippedString(val string) bool {
	self.skipWhitespace()
	if strings.HasPrefix(self.rest(), val) {
		self.cursor += len(val)
		return true
	}
	return false
}

// "!" but not "!=".
func (self *exprParser) skippedBang() bool {
	self.skipWhitespace()
	if self.more() && self.headByte() == '!' && !strings.HasPrefix(self.rest(), `!=`) {
		self.cursor++
		return true
	}
	return false
}

// Unlike `skippedString`, requires the byte to occur immediately at the
// cursor. Whitespace before path separators is not allowed.
func (self *exprParser) skippedByteImmediate(val byte) bool {
	if self.more() && self.headByte() == val {
		self.cursor++
		return true
	}
	return false
}

func (self *exprParser) reqByte(val byte) {
	self.skipWhitespace()
	if self.more() && self.headByte() == val {
		self.cursor++
		return
	}
	panic(errBuild(
		`parsing expression`,
		errf(`expected %q at %q in expression %q`, rune(val), self.rest(), self.src),
	))
}

func (self *exprParser) more() bool     { return self.cursor < len(self.src) }
func (self *exprParser) headByte() byte { return self.src[self.cursor] }
func (self *exprParser) rest() string   { return self.src[self.cursor:] }

/*
Truthiness of a test expression result: nil, false, zero numbers, empty
strings and empty collections are false; everything else is true.
*/
func isTruthy(val any) bool {
	if isNil(val) {
		return false
	}

	rval := valueDeref(r.ValueOf(val))
	if !rval.IsValid() {
		return false
	}

	switch rval.Kind() {
	case r.Bool:
		return rval.Bool()
	case r.Int, r.Int8, r.Int16, r.Int32, r.Int64:
		return rval.Int() != 0
	case r.Uint, r.Uint8, r.Uint16, r.Uint32, r.Uint64:
		return rval.Uint() != 0
	case r.Float32, r.Float64:
		return rval.Float() != 0
	case r.String, r.Slice, r.Array, r.Map:
		return rval.Len() != 0
	default:
		return true
	}
}

func compare(op string, lhs, rhs any) bool {
	lhs, rhs = normNil(lhs), normNil(rhs)

	if lhs == nil || rhs == nil {
		switch op {
		case `==`:
			return lhs == nil && rhs == nil
		case `!=`:
			return !(lhs == nil && rhs == nil)
		default:
			panic(errExpr(
				`evaluating expression`,
				errf(`can't order %v and %v with %q`, lhs, rhs, op),
			))
		}
	}

	lnum, lok := numOf(lhs)
	rnum, rok := numOf(rhs)
	if lok && rok {
		return compareOrdered(op, lnum, rnum)
	}

	lstr, lok := lhs.(string)
	rstr, rok := rhs.(string)
	if lok && rok {
		return compareOrdered(op, lstr, rstr)
	}

	switch op {
	case `==`:
		return looseEq(lhs, rhs)
	case `!=`:
		return !looseEq(lhs, rhs)
	default:
		panic(errExpr(
			`evaluating expression`,
			errf(`can't order %v (%T) and %v (%T) with %q`, lhs, lhs, rhs, rhs, op),
		))
	}
}

func compareOrdered[A float64 | string](op string, lhs, rhs A) bool {
	switch op {
	case `==`:
		return lhs == rhs
	case `!=`:
		return lhs != rhs
	case `<`:
		return lhs < rhs
	case `<=`:
		return lhs <= rhs
	case `>`:
		return lhs > rhs
	case `>=`:
		return lhs >= rhs
	default:
		panic(ErrInternal{Err{
			`evaluating expression`,
			errf(`internal error: unknown comparison operator %q`, op),
		}})
	}
}

func looseEq(lhs, rhs any) bool {
	lnum, lok := numOf(lhs)
	rnum, rok := numOf(rhs)
	if lok && rok {
		return lnum == rnum
	}
	return r.DeepEqual(lhs, rhs)
}

func numOf(val any) (float64, bool) {
	rval := valueDeref(r.ValueOf(val))
	if !rval.IsValid() {
		return 0, false
	}
	switch rval.Kind() {
	case r.Int, r.Int8, r.Int16, r.Int32, r.Int64:
		return float64(rval.Int()), true
	case r.Uint, r.Uint8, r.Uint16, r.Uint32, r.Uint64:
		return float64(rval.Uint()), true
	case r.Float32, r.Float64:
		return rval.Float(), true
	default:
		return 0, false
	}
}

func normNil(val any) any {
	if isNil(val) {
		return nil
	}
	return val
}

// Membership for the `in` operator: slice/array elements, or map values.
func contains(coll, val any) bool {
	rval := valueDeref(r.ValueOf(normNil(coll)))
	if !rval.IsValid() {
		return false
	}

	switch rval.Kind() {
	case r.Slice, r.Array:
		for ind := range counter(rval.Len()) {
			if looseEq(rval.Index(ind).Interface(), val) {
				return true
			}
		}
		return false

	case r.Map:
		iter := rval.MapRange()
		for iter.Next() {
			if looseEq(iter.Value().Interface(), val) {
				return true
			}
		}
		return false

	default:
		panic(errExpr(
			`evaluating expression`,
			errf(`can't test membership in non-collection %v (%T)`, coll, coll),
		))
	}
}

/*
Resolves a named property of an arbitrary value: map key, struct field (by Go
name or "db" tag ident), or nullary single-return method. A missing map key
resolves to nil; a missing struct member is an error.
*/
func propOf(val any, name string) any {
	if isNil(val) {
		panic(errExpr(
			`evaluating expression`,
			errf(`can't resolve property %q of null`, name),
		))
	}

	rval := valueDeref(r.ValueOf(val))

	switch rval.Kind() {
	case r.Map:
		return mapProp(rval, name)
	case r.Struct:
		return structProp(rval, name)
	default:
		panic(errExpr(
			`evaluating expression`,
			errf(`can't resolve property %q of %v (%T)`, name, val, val),
		))
	}
}

func mapProp(rval r.Value, name string) any {
	key := rval.Type().Key()
	if key.Kind() != r.String && key.Kind() != r.Interface {
		panic(errExpr(
			`evaluating expression`,
			errf(`can't resolve property %q of map keyed by %v`, name, key),
		))
	}

	out := rval.MapIndex(r.ValueOf(name).Convert(keyTypeFor(key)))
	if !out.IsValid() {
		return nil
	}
	return out.Interface()
}

func keyTypeFor(key r.Type) r.Type {
	if key.Kind() == r.Interface {
		return typeString
	}
	return key
}

var typeString = r.TypeOf(``)

func structProp(rval r.Value, name string) any {
	path, ok := loadStructPathMap(rval.Type())[name]
	if !ok {
		panic(errExpr(
			`evaluating expression`,
			errf(`unable to resolve property %q of %v`, name, rval.Type()),
		))
	}

	if path.FieldIndex != nil {
		return rval.FieldByIndex(path.FieldIndex).Interface()
	}

	meth := rval.Method(path.MethodIndex)
	if meth.IsValid() {
		reqGetter(rval.Type(), meth.Type(), name)
		return meth.Call(nil)[0].Interface()
	}

	panic(errExpr(
		`evaluating expression`,
		errf(`unable to resolve property %q of %v`, name, rval.Type()),
	))
}

// Indexed access: `items[0]` for slices and arrays, `dict[key]` for maps.
func indexOf(val, key any) any {
	if isNil(val) {
		panic(errExpr(
			`evaluating expression`,
			errf(`can't index into null`),
		))
	}

	rval := valueDeref(r.ValueOf(val))

	switch rval.Kind() {
	case r.Slice, r.Array:
		num, ok := numOf(key)
		ind := int(num)
		if !ok || ind < 0 || ind >= rval.Len() {
			panic(errExpr(
				`evaluating expression`,
				errf(`index %v out of bounds for collection of length %v`, key, rval.Len()),
			))
		}
		return rval.Index(ind).Interface()

	case r.Map:
		if str, ok := key.(string); ok {
			return mapProp(rval, str)
		}
		out := rval.MapIndex(r.ValueOf(key))
		if !out.IsValid() {
			return nil
		}
		return out.Interface()

	default:
		panic(errExpr(
			`evaluating expression`,
			errf(`can't index into %v (%T)`, val, val),
		))
	}
}

type collEntry struct {
	key any
	val any
}

/*
Materializes a "foreach" collection: slice and array elements in order with
integer keys, or map entries with the map's keys. String-keyed maps are
sorted for deterministic output; other maps iterate in reflection order.
Anything else is a per-call error.
*/
func collEntries(val any) []collEntry {
	rval := valueDeref(r.ValueOf(normNil(val)))
	if !rval.IsValid() {
		panic(errExpr(
			`evaluating expression`,
			errf(`can't iterate null collection`),
		))
	}

	switch rval.Kind() {
	case r.Slice, r.Array:
		out := make([]collEntry, 0, rval.Len())
		for ind := range counter(rval.Len()) {
			out = append(out, collEntry{ind, rval.Index(ind).Interface()})
		}
		return out

	case r.Map:
		out := make([]collEntry, 0, rval.Len())
		iter := rval.MapRange()
		for iter.Next() {
			out = append(out, collEntry{iter.Key().Interface(), iter.Value().Interface()})
		}
		if rval.Type().Key().Kind() == r.String {
			sort.Slice(out, func(one, two int) bool {
				return out[one].key.(string) < out[two].key.(string)
			})
		}
		return out

	default:
		panic(errExpr(
			`evaluating expression`,
			errf(`can't iterate non-collection %v (%T)`, val, val),
		))
	}
}
