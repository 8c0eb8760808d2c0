/*
SQL Templates: dynamic SQL templating engine. Compiles a tagged-markup
description of an SQL statement, with conditionals, loops, variable binding,
and parameter placeholders, into an immutable template. Evaluating the
template against an invocation argument produces the final SQL text with
Postgres-style ordinal parameters such as "$1", plus an ordered list of
parameter descriptors.

See the sibling libraries https://github.com/mitranim/sqlb for hand-written
query building and https://github.com/mitranim/sqlp for the underlying SQL
tokenization approach.

Key Features

• Templates are plain SQL with a small set of markup tags: "if", "choose" /
"when" / "otherwise", "trim", "where", "set", "foreach", "bind".

• Two marker syntaxes with distinct meanings: "#{expr}" becomes an ordinal
bind parameter, while "${expr}" splices the evaluated value directly into the
SQL text before parameter rewriting.

• Compiled templates are immutable and safe for concurrent use. All per-call
state lives in an evaluation context created fresh for each invocation.

• Statements without any dynamic construct are detected at compile time,
evaluated and rewritten once, and served as precomputed text with no per-call
cost.

• Invocation arguments may be maps, structs (fields, "db" tags, and getter
methods), or single scalar values.

Usage

Oversimplified example:

	src, err := sqlt.ParseScriptString(`
		select * from persons
		<where>
			<if test="name != null">and name = #{name}</if>
			<if test="age != null">and age >= #{age,type=int64}</if>
		</where>
	`)
	if err != nil {panic(err)}

	bound, err := src.Bound(map[string]any{`name`: `Mira`})
	if err != nil {panic(err)}

	// bound.Text   == `select * from persons WHERE name = $1`
	// bound.Params == []sqlt.Param{{Name: `name`}}

See `ParseScriptString`, `Source`, `Bound` for details.
*/
package sqlt
