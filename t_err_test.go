package sqlt

import (
	"errors"
	"io"
	"testing"
)

func TestErr_formatting(t *testing.T) {
	eq(t, ``, Err{}.Error())
	eq(t, `[sqlt] error while binding`, Err{While: `binding`}.Error())
	eq(t, `[sqlt] error: wat`, Err{Cause: errf(`wat`)}.Error())
	eq(t, `[sqlt] error while binding: wat`, Err{`binding`, errf(`wat`)}.Error())
}

func TestErr_classes(t *testing.T) {
	build := errBuild(`building`, errf(`wat`))
	eq(t, true, errors.Is(build, ErrBuild{}))
	eq(t, false, errors.Is(build, ErrExpr{}))

	expr := errExpr(`evaluating`, errf(`wat`))
	eq(t, true, errors.Is(expr, ErrExpr{}))
	eq(t, false, errors.Is(expr, ErrBuild{}))
}

func TestErr_unwrapping(t *testing.T) {
	_, err := ParseScriptString(`select #{id`)
	eq(t, true, errors.Is(err, ErrBuild{}))
	eq(t, true, errors.Is(err, io.EOF))
}

func TestErr_class_from_binding(t *testing.T) {
	src := tParse(t, `select 1 <if test="nope != null">x</if>`)

	_, err := src.Bound(UnitStruct{})
	eq(t, true, errors.Is(err, ErrExpr{}))
	eq(t, false, errors.Is(err, ErrBuild{}))
}
