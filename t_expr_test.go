package sqlt

import "testing"

func Test_expr_literals(t *testing.T) {
	eq(t, int64(1), evalStr(`1`, nil))
	eq(t, int64(-12), evalStr(`-12`, nil))
	eq(t, 1.5, evalStr(`1.5`, nil))
	eq(t, `one`, evalStr(`'one'`, nil))
	eq(t, `it's`, evalStr(`'it''s'`, nil))
	eq(t, true, evalStr(`true`, nil))
	eq(t, false, evalStr(`false`, nil))
	eq(t, nil, evalStr(`null`, nil))
}

func Test_expr_truthiness(t *testing.T) {
	test := func(exp bool, val any) {
		t.Helper()
		eq(t, exp, isTruthy(val))
	}

	test(false, nil)
	test(false, false)
	test(false, 0)
	test(false, 0.0)
	test(false, ``)
	test(false, []int{})
	test(false, map[string]int{})
	test(false, (*int)(nil))

	test(true, true)
	test(true, 1)
	test(true, -1)
	test(true, `0`)
	test(true, []int{0})
	test(true, UnitStruct{})
}

func Test_expr_comparisons(t *testing.T) {
	test := func(exp bool, src string, vals dict) {
		t.Helper()
		eq(t, exp, evalStr(src, vals))
	}

	test(true, `1 == 1`, nil)
	test(true, `1 == 1.0`, nil)
	test(false, `1 == 2`, nil)
	test(true, `1 != 2`, nil)
	test(true, `2 > 1`, nil)
	test(true, `1 <= 1`, nil)
	test(true, `'a' < 'b'`, nil)
	test(false, `'b' < 'a'`, nil)

	// Numeric comparison is agnostic to the concrete Go type.
	test(true, `val == 10`, dict{`val`: int32(10)})
	test(true, `val > 9.5`, dict{`val`: uint8(10)})

	// Nil compares equal only to nil.
	test(true, `val == null`, dict{`val`: nil})
	test(false, `val != null`, dict{`val`: nil})
	test(true, `val != null`, dict{`val`: 0})

	// Equality across mismatched types is false, not an error.
	test(false, `val == 'one'`, dict{`val`: true})
	test(true, `val != 'one'`, dict{`val`: true})
}

func Test_expr_membership(t *testing.T) {
	test := func(exp bool, src string, vals dict) {
		t.Helper()
		eq(t, exp, evalStr(src, vals))
	}

	test(true, `val in items`, dict{`val`: 2, `items`: []int{1, 2, 3}})
	test(false, `val in items`, dict{`val`: 4, `items`: []int{1, 2, 3}})
	test(true, `val in items`, dict{`val`: 2, `items`: map[string]int{`two`: 2}})
	test(false, `val in items`, dict{`val`: 2, `items`: nil})
}

func Test_expr_logic(t *testing.T) {
	test := func(exp bool, src string, vals dict) {
		t.Helper()
		eq(t, exp, evalStr(src, vals))
	}

	test(true, `true and true`, nil)
	test(false, `true and false`, nil)
	test(true, `true or false`, nil)
	test(false, `false or false`, nil)
	test(true, `not false`, nil)
	test(true, `!false`, nil)
	test(true, `true && true`, nil)
	test(true, `false || true`, nil)

	// "and" binds tighter than "or".
	test(true, `true or false and false`, nil)
	test(true, `(true or false) and true`, nil)

	// Short-circuit: the right side must not be evaluated.
	test(false, `false and missing.prop`, nil)
	test(true, `true or missing.prop`, nil)

	test(true, `name != null and age > 30`, dict{`name`: `Mira`, `age`: 32})
}

func Test_expr_paths(t *testing.T) {
	vals := dict{
		`outer`: dict{`inner`: 10},
		`items`: []string{`one`, `two`},
		`index`: 1,
		`person`: External{
			Id:       `ext`,
			Internal: Internal{Name: `in`},
		},
	}

	eq(t, 10, evalStr(`outer.inner`, vals))
	eq(t, nil, evalStr(`outer.missing`, vals))
	eq(t, `two`, evalStr(`items[1]`, vals))
	eq(t, `two`, evalStr(`items[index]`, vals))
	eq(t, 10, evalStr(`outer['inner']`, vals))

	// Struct properties resolve by Go name, "db" tag ident, and getters.
	eq(t, `ext`, evalStr(`person.Id`, vals))
	eq(t, `ext`, evalStr(`person.id`, vals))
	eq(t, `in`, evalStr(`person.internal.name`, vals))
	eq(t, `val`, evalStr(`void.GetVal`, dict{`void`: Void{}}))
}

func Test_expr_errors(t *testing.T) {
	panics(t, `unable to resolve property "missing"`, func() {
		evalStr(`missing`, dict{})
	})

	panics(t, `can't resolve property "prop" of null`, func() {
		evalStr(`val.prop`, dict{`val`: nil})
	})

	panics(t, `unable to resolve property "nope"`, func() {
		evalStr(`person.nope`, dict{`person`: UnitStruct{}})
	})

	panics(t, `can't order`, func() {
		evalStr(`1 > 'a'`, nil)
	})

	panics(t, `index 5 out of bounds`, func() {
		evalStr(`items[5]`, dict{`items`: []int{1}})
	})

	panics(t, `unexpected`, func() { exprFor(`1 +`) })
	panics(t, `unterminated string literal`, func() { exprFor(`'one`) })
	panics(t, `unexpected end of expression`, func() { exprFor(`1 ==`) })
}
