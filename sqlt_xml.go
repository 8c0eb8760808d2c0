package sqlt

import (
	"encoding/xml"
	"io"
	"strings"
)

/*
Markup node backed by `encoding/xml`. Implements `Markup`. Interleaved text,
CDATA, and child elements are preserved in document order; comments and
processing instructions are dropped. This is the only place in the package
aware of a concrete markup syntax; the template parser sees only the
`Markup` interface.
*/
type XmlNode struct {
	tag   string
	attrs []xml.Attr
	kids  []Markup
	text  string
}

// Implement `Markup`. Empty for text and CDATA nodes.
func (self *XmlNode) Tag() string { return self.tag }

// Implement `Markup`. Returns "" for a missing attribute.
func (self *XmlNode) Attr(name string) string {
	for _, attr := range self.attrs {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ``
}

// Implement `Markup`.
func (self *XmlNode) Children() []Markup { return self.kids }

// Implement `Markup`. Non-empty only for text and CDATA nodes.
func (self *XmlNode) Text() string { return self.text }

/*
Parses XML markup into a `Markup` tree. When the document consists of exactly
one root element, that element is returned, so both a full statement
definition such as "<select>...</select>" and bare mixed content such as
"where id = #{id}" parse into a node suitable for `ParseScript`.
*/
func ParseXml(src string) (_ *XmlNode, err error) {
	defer rec(&err)

	root := new(XmlNode)
	stack := []*XmlNode{root}

	dec := xml.NewDecoder(strings.NewReader(src))

	for {
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(errBuild(`parsing markup`, err))
		}

		head := stack[len(stack)-1]

		switch token := token.(type) {
		case xml.StartElement:
			node := &XmlNode{tag: token.Name.Local, attrs: copyAttrs(token.Attr)}
			head.kids = append(head.kids, node)
			stack = append(stack, node)

		case xml.EndElement:
			if len(stack) < 2 {
				panic(errBuild(
					`parsing markup`,
					errf(`unexpected closing element </%v>`, token.Name.Local),
				))
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			// The decoder reuses the byte buffer; copy.
			head.kids = append(head.kids, &XmlNode{text: string(token)})
		}
	}

	if len(stack) > 1 {
		panic(errBuild(
			`parsing markup`,
			errf(`missing closing element </%v>`, stack[len(stack)-1].tag),
		))
	}

	return unwrapRoot(root), nil
}

/*
Descends into the single root element, if any, treating it as a statement
container such as "<select>". A document with multiple top-level elements,
with non-blank top-level text, or whose root is itself a template tag such as
"<where>" is treated as bare mixed content and returned as-is.
*/
func unwrapRoot(root *XmlNode) *XmlNode {
	var elem *XmlNode

	for _, kid := range root.kids {
		node := kid.(*XmlNode)
		if node.tag == `` {
			if !isBlank(node.text) {
				return root
			}
			continue
		}
		if elem != nil {
			return root
		}
		elem = node
	}

	if elem != nil && tagHandlers[elem.tag] == nil {
		return elem
	}
	return root
}

func copyAttrs(src []xml.Attr) []xml.Attr {
	if len(src) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(src))
	copy(out, src)
	return out
}
