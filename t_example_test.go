package sqlt_test

import (
	"fmt"

	s "github.com/mitranim/sqlt"
)

func Example_dynamicWhere() {
	src, err := s.ParseScriptString(`
		select * from persons
		<where>
			<if test="name != null">and name = #{name}</if>
			<if test="age != null">and age >= #{age}</if>
		</where>
	`)
	if err != nil {
		panic(err)
	}

	arg := map[string]any{`name`: `Mira`}

	bound, err := src.Bound(arg)
	if err != nil {
		panic(err)
	}

	args, err := bound.Args(arg)
	if err != nil {
		panic(err)
	}

	fmt.Println(bound.Text)
	fmt.Println(args)

	// Output:
	// select * from persons WHERE name = $1
	// [Mira]
}

func Example_foreach() {
	src, err := s.ParseScriptString(`
		delete from persons where id in
		<foreach collection="ids" item="id" open="(" separator="," close=")">#{id}</foreach>
	`)
	if err != nil {
		panic(err)
	}

	arg := map[string]any{`ids`: []int{10, 20, 30}}

	bound, err := src.Bound(arg)
	if err != nil {
		panic(err)
	}

	args, err := bound.Args(arg)
	if err != nil {
		panic(err)
	}

	fmt.Println(bound.Text)
	fmt.Println(args)

	// Output:
	// delete from persons where id in ($1, $2, $3)
	// [10 20 30]
}

func Example_substitution() {
	src, err := s.ParseScriptString(`select * from ${tbl} order by ${col}`)
	if err != nil {
		panic(err)
	}

	bound, err := src.Bound(map[string]any{`tbl`: `persons`, `col`: `name`})
	if err != nil {
		panic(err)
	}

	fmt.Println(bound.Text)

	// Output:
	// select * from persons order by name
}
