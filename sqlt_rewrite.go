package sqlt

import (
	"strings"

	"github.com/mitranim/sqlp"
)

/*
Rewrites evaluated statement text, replacing every "#{}" placeholder with an
ordinal parameter such as "$1", in order of occurrence. Returns the rewritten
text and the parameter descriptors in matching order. Placeholders inside
quoted strings and comments are left untouched. Substitution markers are
spliced by text evaluation before this pass; marker-like text that survives,
such as "${}" inside a spliced value, is literal and passes through verbatim.
*/
func rewriteOrdinal(src string) (string, []Param) {
	buf := make([]byte, 0, len(src))
	var params []Param

	tokenizer := Tokenizer{Source: src}
	for {
		token := tokenizer.Next()
		if token.IsInvalid() {
			break
		}

		switch token.Type {
		case TokenTypePlaceholder:
			params = append(params, parseParam(token.MarkerBody()))
			ord := sqlp.NodeOrdinalParam(len(params))
			ord.Append(&buf)

		default:
			buf = append(buf, token.Text...)
		}
	}

	return bytesToMutableString(buf), params
}

/*
Parses a placeholder body of the form "name" or "name,key=value,...". The
name is a property path resolved against the statement argument; the
remaining segments are optional hints. Supported hints:

	type     registered type alias, see `RegisterTypeAlias`
	dbType   passed through verbatim as `Param.DbType`
	handler  registered type handler, see `RegisterTypeHandler`
*/
func parseParam(src string) Param {
	segs := strings.Split(src, `,`)

	out := Param{Name: strings.TrimSpace(segs[0])}
	if out.Name == `` {
		panic(errBuild(
			`parsing parameter hints`,
			errf(`empty parameter name in placeholder %q`, src),
		))
	}

	for _, seg := range segs[1:] {
		key, val, ok := strings.Cut(seg, `=`)
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		if !ok || key == `` || val == `` {
			panic(errBuild(
				`parsing parameter hints`,
				errf(`malformed parameter hint %q in placeholder %q`, seg, src),
			))
		}

		switch key {
		case `type`, `javaType`:
			out.Type = typeAliasFor(val)
		case `dbType`, `jdbcType`:
			out.DbType = val
		case `handler`, `typeHandler`:
			out.Handler = typeHandlerFor(val)
		default:
			panic(errBuild(
				`parsing parameter hints`,
				errf(`unknown parameter hint %q in placeholder %q`, key, src),
			))
		}
	}

	return out
}
