package sqlt

import r "reflect"

/*
Converts a parameter value into a driver-friendly representation before it's
handed to the database layer. Implementations are registered globally via
`RegisterTypeHandler` and referenced by name in placeholder hints:

	#{createdAt,handler=unixTime}

Handlers are applied by `Bound.Args`.
*/
type TypeHandler interface {
	Encode(any) (any, error)
}

/*
Shortcut for implementing `TypeHandler` with a plain function.
*/
type TypeHandlerFunc func(any) (any, error)

// Implement `TypeHandler`.
func (self TypeHandlerFunc) Encode(val any) (any, error) { return self(val) }

/*
Registers a type alias usable in the "type" hint of a placeholder, such as
"#{val,type=int64}". Standard aliases are pre-registered; see `typeAliases`.
Must be called before templates referencing the alias are parsed, typically
in `init`. Not synchronized.
*/
func RegisterTypeAlias(name string, typ r.Type) {
	typeAliases[name] = typ
}

/*
Registers a named `TypeHandler` for use in the "handler" hint of a
placeholder. Must be called before templates referencing the handler are
parsed, typically in `init`. Not synchronized.
*/
func RegisterTypeHandler(name string, val TypeHandler) {
	if val == nil {
		panic(ErrInternal{Err{
			`registering type handler`,
			errf(`nil type handler %q`, name),
		}})
	}
	typeHandlers[name] = val
}

var typeAliases = map[string]r.Type{
	`string`:  typeString,
	`int`:     r.TypeOf(int(0)),
	`int64`:   r.TypeOf(int64(0)),
	`float64`: r.TypeOf(float64(0)),
	`bool`:    r.TypeOf(false),
	`bytes`:   typeBytes,
	`time`:    typeTime,
}

var typeHandlers = map[string]TypeHandler{}

func typeAliasFor(name string) r.Type {
	typ := typeAliases[name]
	if typ == nil {
		panic(errBuild(
			`parsing parameter hints`,
			errf(`unknown type alias %q`, name),
		))
	}
	return typ
}

func typeHandlerFor(name string) TypeHandler {
	val := typeHandlers[name]
	if val == nil {
		panic(errBuild(
			`parsing parameter hints`,
			errf(`unknown type handler %q`, name),
		))
	}
	return val
}
