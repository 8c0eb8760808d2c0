package sqlt

import (
	"fmt"
	r "reflect"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/mitranim/refut"
)

const (
	quoteSingle        = '\''
	quoteDouble        = '"'
	quoteGrave         = '`'
	commentLinePrefix  = `--`
	commentBlockPrefix = `/*`
	commentBlockSuffix = `*/`
	doubleColonPrefix  = `::`
	placeholderPrefix  = `#{`
	substitutionPrefix = `${`
	markerSuffix       = '}'

	expectedStructNestingDepth = 8
)

var (
	typeTime  = r.TypeOf((*time.Time)(nil)).Elem()
	typeBytes = r.TypeOf((*[]byte)(nil)).Elem()

	charsetDigitDec   = new(charset).addStr(`0123456789`)
	charsetIdentStart = new(charset).addStr(`ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_`)
	charsetIdent      = new(charset).addSet(charsetIdentStart).addSet(charsetDigitDec)
	charsetSpace      = new(charset).addStr(" \t\v")
	charsetNewline    = new(charset).addStr("\r\n")
	charsetWhitespace = new(charset).addSet(charsetSpace).addSet(charsetNewline)
	charsetDelimStart = new(charset).addSet(charsetWhitespace).addStr(`([{.`)
	charsetDelimEnd   = new(charset).addSet(charsetWhitespace).addStr(`,}])`)
)

type charset [256]bool

func (self *charset) has(val byte) bool { return self[val] }

func (self *charset) addStr(vals string) *charset {
	for _, val := range vals {
		self[val] = true
	}
	return self
}

func (self *charset) addSet(vals *charset) *charset {
	for ind, val := range vals {
		if val {
			self[ind] = true
		}
	}
	return self
}

// Must be deferred.
func rec(ptr *error) {
	val := recover()
	if val == nil {
		return
	}

	err, _ := val.(error)
	if err != nil {
		*ptr = err
		return
	}

	panic(val)
}

func cacheOf[Key, Val any](fun func(Key) Val) *cache[Key, Val] {
	return &cache[Key, Val]{Func: fun}
}

type cache[Key, Val any] struct {
	sync.Map
	Func func(Key) Val
}

// Susceptible to "thundering herd". An improvement from no caching, but still
// not ideal.
func (self *cache[Key, Val]) Get(key Key) Val {
	iface, ok := self.Load(key)
	if ok {
		return iface.(Val)
	}

	val := self.Func(key)
	self.Store(key, val)
	return val
}

/*
Allocation-free conversion. Reinterprets a byte slice as a string. Borrowed
from the standard library. Reasonably safe. Should not be used when the
underlying byte array is volatile, for example when it's part of a scratch
buffer during SQL scanning.
*/
func bytesToMutableString(bytes []byte) string {
	return *(*string)(unsafe.Pointer(&bytes))
}

func appendMaybeSpaced(text []byte, suffix string) []byte {
	if !hasDelimSuffix(bytesToMutableString(text)) && !hasDelimPrefix(suffix) {
		text = append(text, ` `...)
	}
	text = append(text, suffix...)
	return text
}

func hasDelimPrefix(text string) bool {
	return len(text) == 0 || charsetDelimEnd.has(text[0])
}

func hasDelimSuffix(text string) bool {
	return len(text) == 0 || charsetDelimStart.has(text[len(text)-1])
}

func leadingNewlineSize(val string) int {
	if len(val) >= 2 && val[0] == '\r' && val[1] == '\n' {
		return 2
	}
	if len(val) >= 1 && (val[0] == '\r' || val[0] == '\n') {
		return 1
	}
	return 0
}

func isBlank(val string) bool { return strings.TrimSpace(val) == `` }

func counter(val int) []struct{} { return make([]struct{}, val) }

// Generics when?
func resliceInts(val *[]int, length int) { *val = (*val)[:length] }

// Generics when?
func copyInts(src []int) []int {
	if src == nil {
		return nil
	}
	out := make([]int, len(src))
	copy(out, src)
	return out
}

func isPublic(pkgPath string) bool { return pkgPath == `` }

func typeDeref(typ r.Type) r.Type { return refut.RtypeDeref(typ) }

func typeElem(typ r.Type) r.Type {
	for typ != nil && (typ.Kind() == r.Ptr || typ.Kind() == r.Slice) {
		typ = typ.Elem()
	}
	return typ
}

func valueDeref(val r.Value) r.Value {
	for val.Kind() == r.Ptr || val.Kind() == r.Interface {
		if val.IsNil() {
			return r.Value{}
		}
		val = val.Elem()
	}
	return val
}

func isNil(val any) bool {
	return val == nil || isValueNil(r.ValueOf(val))
}

func isValueNil(val r.Value) bool {
	return !val.IsValid() || isNilable(val.Kind()) && val.IsNil()
}

func isNilable(kind r.Kind) bool {
	switch kind {
	case r.Chan, r.Func, r.Interface, r.Map, r.Ptr, r.Slice:
		return true
	default:
		return false
	}
}

func reqGetter(val, method r.Type, name string) {
	inputs := method.NumIn()
	if inputs != 0 {
		panic(ErrInternal{Err{
			`evaluating method`,
			errf(
				`can't evaluate %q of %v: expected 0 parameters, found %v parameters`,
				name, val, inputs,
			),
		}})
	}

	outputs := method.NumOut()
	if outputs != 1 {
		panic(ErrInternal{Err{
			`evaluating method`,
			errf(
				`can't evaluate %q of %v: expected 1 return parameter, found %v return parameters`,
				name, val, outputs,
			),
		}})
	}
}

type structPath struct {
	Name        string
	FieldIndex  []int
	MethodIndex int
}

func loadStructPathMap(typ r.Type) map[string]structPath {
	return structPathMapCache.Get(typeElem(typ))
}

var structPathMapCache = cacheOf(func(typ r.Type) map[string]structPath {
	paths := loadStructPaths(typ)
	out := make(map[string]structPath, len(paths))
	for _, val := range paths {
		out[val.Name] = val
	}
	return out
})

func loadStructPaths(typ r.Type) []structPath {
	return structPathsCache.Get(typeElem(typ))
}

var structPathsCache = cacheOf(func(typ r.Type) []structPath {
	var out []structPath

	typ = typeElem(typ)
	if typ == nil {
		return out
	}

	if typ.Kind() != r.Struct {
		panic(ErrInternal{Err{
			`scanning struct field and method paths`,
			errf(`expected struct type, got %v`, typ),
		}})
	}

	path := make([]int, 0, expectedStructNestingDepth)
	for ind := range counter(typ.NumField()) {
		appendStructFieldPaths(&out, &path, typ, ind)
	}

	for ind := range counter(typ.NumMethod()) {
		meth := typ.Method(ind)
		if isPublic(meth.PkgPath) {
			out = append(out, structPath{Name: meth.Name, MethodIndex: ind})
		}
	}

	return out
})

/*
Registers each field under its Go name and, when present, under the ident of
its "db" tag. Embedded structs are flattened.
*/
func appendStructFieldPaths(buf *[]structPath, path *[]int, typ r.Type, index int) {
	field := typ.Field(index)
	if !isPublic(field.PkgPath) {
		return
	}

	defer resliceInts(path, len(*path))
	*path = append(*path, index)
	*buf = append(*buf, structPath{Name: field.Name, FieldIndex: copyInts(*path)})

	ident := refut.TagIdent(field.Tag.Get(`db`))
	if ident != `` && ident != field.Name {
		*buf = append(*buf, structPath{Name: ident, FieldIndex: copyInts(*path)})
	}

	typ = typeDeref(field.Type)
	if field.Anonymous && typ.Kind() == r.Struct {
		for ind := range counter(typ.NumField()) {
			appendStructFieldPaths(buf, path, typ, ind)
		}
	}
}

/*
Textual representation of an expression value spliced by a "${}" marker. Nil
is rendered as the SQL literal `null`.
*/
func stringOf(val any) string {
	if isNil(val) {
		return `null`
	}
	switch val := val.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
