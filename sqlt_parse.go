package sqlt

import (
	"strings"
)

/*
Read-only view of one markup node. The template parser consumes this instead
of a concrete markup library: anything that can report its tag name,
attributes, ordered children, and text payload can be compiled. Text and
CDATA nodes report an empty tag. The engine never mutates the tree.
*/
type Markup interface {
	Tag() string
	Attr(string) string
	Children() []Markup
	Text() string
}

/*
Compiles the given markup node into an executable template. Statements
containing no dynamic construct (tags or "${}" markers) are evaluated and
rewritten once, at compile time; everything else compiles to a
`DynamicSource` evaluated per call.
*/
func ParseScript(src Markup) (_ Source, err error) {
	defer rec(&err)

	var bui scriptBuilder
	root := bui.parseChildren(src)

	if bui.dynamic {
		return DynamicSource{root}, nil
	}
	return makeRawSource(root), nil
}

// Shortcut: parses XML markup text, then compiles it via `ParseScript`.
func ParseScriptString(src string) (Source, error) {
	markup, err := ParseXml(src)
	if err != nil {
		return nil, err
	}
	return ParseScript(markup)
}

type scriptBuilder struct {
	dynamic bool
}

func (self *scriptBuilder) parseChildren(elem Markup) MixedNode {
	var out MixedNode

	for _, child := range elem.Children() {
		if child.Tag() == `` {
			text := strings.TrimSpace(child.Text())
			if text == `` {
				continue
			}

			node, dynamic := MakeTextNode(text)
			if dynamic {
				self.dynamic = true
				out = append(out, node)
			} else {
				out = append(out, RawNode(text))
			}
			continue
		}

		handler, ok := tagHandlers[child.Tag()]
		if !ok {
			panic(errBuild(
				`building SQL template`,
				errf(`unknown element <%v> in SQL statement`, child.Tag()),
			))
		}

		out = append(out, handler(self, child))
		self.dynamic = true
	}

	return out
}

/*
Per-tag builders, keyed by tag name. "when" reuses the "if" builder;
"otherwise" recurses and contributes a bare composite with no wrapping node.
Populated in `init` because the builders recurse through `parseChildren`,
which reads the map; a declarative initializer would be a cycle.
*/
var tagHandlers map[string]func(*scriptBuilder, Markup) Node

func init() {
	tagHandlers = map[string]func(*scriptBuilder, Markup) Node{
		`trim`:      (*scriptBuilder).trimNode,
		`where`:     (*scriptBuilder).whereNode,
		`set`:       (*scriptBuilder).setNode,
		`foreach`:   (*scriptBuilder).forEachNode,
		`if`:        (*scriptBuilder).ifNode,
		`choose`:    (*scriptBuilder).chooseNode,
		`when`:      (*scriptBuilder).ifNode,
		`otherwise`: (*scriptBuilder).otherwiseNode,
		`bind`:      (*scriptBuilder).bindNode,
	}
}

func (self *scriptBuilder) trimNode(elem Markup) Node {
	return TrimNode{
		Body:            self.parseChildren(elem),
		Prefix:          elem.Attr(`prefix`),
		Suffix:          elem.Attr(`suffix`),
		PrefixOverrides: splitOverrides(elem.Attr(`prefixOverrides`)),
		SuffixOverrides: splitOverrides(elem.Attr(`suffixOverrides`)),
	}
}

func (self *scriptBuilder) whereNode(elem Markup) Node {
	return Where(self.parseChildren(elem))
}

func (self *scriptBuilder) setNode(elem Markup) Node {
	return Set(self.parseChildren(elem))
}

func (self *scriptBuilder) forEachNode(elem Markup) Node {
	return MakeForEachNode(ForEachNode{
		Body:       self.parseChildren(elem),
		Collection: reqAttr(elem, `collection`),
		Item:       elem.Attr(`item`),
		Index:      elem.Attr(`index`),
		Open:       elem.Attr(`open`),
		Close:      elem.Attr(`close`),
		Separator:  elem.Attr(`separator`),
	})
}

func (self *scriptBuilder) ifNode(elem Markup) Node {
	return MakeIfNode(reqAttr(elem, `test`), self.parseChildren(elem))
}

func (self *scriptBuilder) otherwiseNode(elem Markup) Node {
	return self.parseChildren(elem)
}

func (self *scriptBuilder) bindNode(elem Markup) Node {
	return MakeBindNode(reqAttr(elem, `name`), reqAttr(elem, `value`))
}

func (self *scriptBuilder) chooseNode(elem Markup) Node {
	var out ChooseNode

	for _, child := range elem.Children() {
		if child.Tag() == `` {
			if !isBlank(child.Text()) {
				panic(errBuild(
					`building SQL template`,
					errf(`unexpected text %q in <choose>; use <when> or <otherwise>`, strings.TrimSpace(child.Text())),
				))
			}
			continue
		}

		switch child.Tag() {
		case `when`, `if`:
			out.Whens = append(out.Whens, MakeIfNode(reqAttr(child, `test`), self.parseChildren(child)))

		case `otherwise`:
			if out.Default != nil {
				panic(errBuild(
					`building SQL template`,
					errf(`too many default (otherwise) elements in choose statement`),
				))
			}
			out.Default = self.parseChildren(child)

		default:
			panic(errBuild(
				`building SQL template`,
				errf(`unknown element <%v> in choose statement`, child.Tag()),
			))
		}
	}

	return out
}

func reqAttr(elem Markup, name string) string {
	val := elem.Attr(name)
	if val == `` {
		panic(errBuild(
			`building SQL template`,
			errf(`missing required attribute %q on element <%v>`, name, elem.Tag()),
		))
	}
	return val
}

// Override lists use "|" as the alternation separator: "AND|OR".
func splitOverrides(src string) []string {
	if src == `` {
		return nil
	}

	var out []string
	for _, val := range strings.Split(src, `|`) {
		val = strings.TrimSpace(val)
		if val != `` {
			out = append(out, val)
		}
	}
	return out
}
