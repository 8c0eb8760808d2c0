package sqlt

import (
	"errors"
	"testing"
)

func Test_ParseXml_statement_container(t *testing.T) {
	node, err := ParseXml(`<select>one <if test="a">two</if> three</select>`)
	eq(t, nil, err)

	// A single non-template root element is the statement container.
	eq(t, `select`, node.Tag())

	kids := node.Children()
	eq(t, 3, len(kids))
	eq(t, `one `, kids[0].Text())
	eq(t, `if`, kids[1].Tag())
	eq(t, `a`, kids[1].Attr(`test`))
	eq(t, ``, kids[1].Attr(`missing`))
	eq(t, `two`, kids[1].Children()[0].Text())
	eq(t, ` three`, kids[2].Text())
}

func Test_ParseXml_bare_content(t *testing.T) {
	node, err := ParseXml(`one ${two}`)
	eq(t, nil, err)
	eq(t, ``, node.Tag())

	kids := node.Children()
	eq(t, 1, len(kids))
	eq(t, `one ${two}`, kids[0].Text())
}

func Test_ParseXml_template_tag_root(t *testing.T) {
	// A lone template tag is content, not a container.
	node, err := ParseXml(`<where><if test="a">a</if></where>`)
	eq(t, nil, err)
	eq(t, ``, node.Tag())

	kids := node.Children()
	eq(t, 1, len(kids))
	eq(t, `where`, kids[0].Tag())
}

func Test_ParseXml_mixed_top_level(t *testing.T) {
	node, err := ParseXml(`select 1 <where>true</where>`)
	eq(t, nil, err)
	eq(t, ``, node.Tag())
	eq(t, 2, len(node.Children()))
}

func Test_ParseXml_entities(t *testing.T) {
	node, err := ParseXml(`a &lt; b &amp;&amp; c &gt; d`)
	eq(t, nil, err)
	eq(t, `a < b && c > d`, node.Children()[0].Text())
}

func Test_ParseXml_invalid(t *testing.T) {
	test := func(src string) {
		t.Helper()
		out, err := ParseXml(src)
		if err == nil {
			t.Fatalf(`expected parsing %q to fail, got %#v`, src, out)
		}
		if !errors.Is(err, ErrBuild{}) {
			t.Fatalf(`expected a build error, got %+v`, err)
		}
	}

	test(`<if test="a">one`)
	test(`one</if>`)
	test(`<if test="a">one</woops>`)
}
