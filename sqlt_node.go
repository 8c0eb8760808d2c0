package sqlt

import (
	"strings"
)

/*
One compiled fragment of a SQL template. Immutable once built; safe for
concurrent use. `Append` evaluates the fragment into the given context's text
buffer and/or binding scope, returning true if the fragment applied (used by
`TrimNode` relatives to decide whether their wrapping applies).
*/
type Node interface {
	Append(*Ctx) bool
}

// Literal SQL text, emitted verbatim.
type RawNode string

// Implement `Node`.
func (self RawNode) Append(ctx *Ctx) bool {
	ctx.Str(string(self))
	return true
}

/*
SQL text containing "${}" substitution markers. On evaluation, each marker is
replaced by the string value of its expression. "#{}" placeholders pass
through untouched; they belong to the rewriting pass.
*/
type TextNode struct {
	Source string
	chunks []textChunk
}

type textChunk struct {
	lit  string
	expr exprNode
}

/*
Compiles SQL text, detecting "${}" markers. The boolean is true if at least
one marker was found; marker-free text should instead be kept as `RawNode`.
*/
func MakeTextNode(src string) (TextNode, bool) {
	out := TextNode{Source: src}

	tok := Tokenizer{Source: src}
	var lit []byte
	dynamic := false

	for {
		token := tok.Next()
		if token.IsInvalid() {
			break
		}

		if token.Type == TokenTypeSubstitution {
			if len(lit) > 0 {
				out.chunks = append(out.chunks, textChunk{lit: string(lit)})
				lit = lit[:0]
			}
			out.chunks = append(out.chunks, textChunk{
				expr: exprFor(strings.TrimSpace(token.MarkerBody())),
			})
			dynamic = true
			continue
		}

		lit = append(lit, token.Text...)
	}

	if len(lit) > 0 {
		out.chunks = append(out.chunks, textChunk{lit: string(lit)})
	}
	return out, dynamic
}

// Implement `Node`.
func (self TextNode) Append(ctx *Ctx) bool {
	if len(self.chunks) == 0 {
		ctx.Str(self.Source)
		return true
	}

	var buf []byte
	for _, chunk := range self.chunks {
		if chunk.expr != nil {
			buf = append(buf, stringOf(chunk.expr.eval(ctx.lookup))...)
		} else {
			buf = append(buf, chunk.lit...)
		}
	}
	ctx.Str(bytesToMutableString(buf))
	return true
}

// Conditional: evaluates the child only if the test expression is truthy.
type IfNode struct {
	Test string
	test exprNode
	Body Node
}

func MakeIfNode(test string, body Node) IfNode {
	return IfNode{Test: test, test: exprFor(test), Body: body}
}

// Implement `Node`.
func (self IfNode) Append(ctx *Ctx) bool {
	if isTruthy(self.test.eval(ctx.lookup)) {
		self.Body.Append(ctx)
		return true
	}
	return false
}

/*
Multi-way choice: branches are evaluated first-true-wins; the optional
default applies when no branch matches. With no default and no match, the
node contributes nothing.
*/
type ChooseNode struct {
	Whens   []IfNode
	Default Node
}

// Implement `Node`.
func (self ChooseNode) Append(ctx *Ctx) bool {
	for _, when := range self.Whens {
		if when.Append(ctx) {
			return true
		}
	}
	if self.Default != nil {
		return self.Default.Append(ctx)
	}
	return false
}

/*
Evaluates its body into a scratch buffer, strips leading/trailing override
tokens, and wraps the remainder with the optional prefix and suffix. The
wrapping applies only if the body produced non-blank output.

Override tokens are matched case-insensitively in declaration order; the
first token that matches as a whole word wins, and exactly one occurrence is
stripped per evaluation. A word boundary is required only between two
identifier characters, so "AND" does not strip from "ANDREW" while "," strips
regardless of the preceding character.
*/
type TrimNode struct {
	Body            Node
	Prefix          string
	Suffix          string
	PrefixOverrides []string
	SuffixOverrides []string
}

// Implement `Node`.
func (self TrimNode) Append(ctx *Ctx) bool {
	scratch := ctx.fork()
	self.Body.Append(scratch)

	content := strings.TrimSpace(scratch.String())
	if content == `` {
		return false
	}

	content = stripPrefixOverride(content, self.PrefixOverrides)
	content = stripSuffixOverride(content, self.SuffixOverrides)

	if self.Prefix != `` {
		content = self.Prefix + ` ` + content
	}
	if self.Suffix != `` {
		content = content + ` ` + self.Suffix
	}

	ctx.Str(content)
	return true
}

/*
`TrimNode` specialized for "where" clauses: prefixes the body with "WHERE"
and strips a leading "AND" or "OR", applying only when the body is non-empty.
*/
func Where(body Node) TrimNode {
	return TrimNode{Body: body, Prefix: `WHERE`, PrefixOverrides: []string{`AND`, `OR`}}
}

// `TrimNode` specialized for "set" clauses: prefixes the body with "SET" and
// strips a trailing comma.
func Set(body Node) TrimNode {
	return TrimNode{Body: body, Prefix: `SET`, SuffixOverrides: []string{`,`}}
}

func stripPrefixOverride(content string, overrides []string) string {
	for _, tok := range overrides {
		if len(tok) == 0 || len(tok) > len(content) {
			continue
		}
		if !strings.EqualFold(content[:len(tok)], tok) {
			continue
		}
		rest := content[len(tok):]
		if identBoundary(tok[len(tok)-1], rest) {
			return strings.TrimLeft(rest, whitespaceCutset)
		}
	}
	return content
}

func stripSuffixOverride(content string, overrides []string) string {
	for _, tok := range overrides {
		if len(tok) == 0 || len(tok) > len(content) {
			continue
		}
		rest := content[:len(content)-len(tok)]
		if !strings.EqualFold(content[len(rest):], tok) {
			continue
		}
		if identBoundaryEnd(tok[0], rest) {
			return strings.TrimRight(rest, whitespaceCutset)
		}
	}
	return content
}

// True unless the token edge and the adjacent text are both identifier
// characters.
func identBoundary(edge byte, rest string) bool {
	return len(rest) == 0 || !charsetIdent.has(edge) || !charsetIdent.has(rest[0])
}

func identBoundaryEnd(edge byte, rest string) bool {
	return len(rest) == 0 || !charsetIdent.has(edge) || !charsetIdent.has(rest[len(rest)-1])
}

const whitespaceCutset = " \t\v\r\n"

/*
Iteration over a collection expression. Each iteration evaluates the body in
a nested binding scope with the item and index variables bound, and rewrites
the body's "#{}" placeholders that reference those variables into synthetic
uniquely-named bindings, so every iteration yields its own positional
parameters. An empty collection contributes nothing, not even the open/close
delimiters.
*/
type ForEachNode struct {
	Body       Node
	Collection string
	collection exprNode
	Item       string
	Index      string
	Open       string
	Close      string
	Separator  string
}

func MakeForEachNode(src ForEachNode) ForEachNode {
	src.collection = exprFor(src.Collection)
	return src
}

// Implement `Node`.
func (self ForEachNode) Append(ctx *Ctx) bool {
	entries := collEntries(self.collection.eval(ctx.lookup))
	if len(entries) == 0 {
		return false
	}

	ctx.Str(self.Open)

	for ind, entry := range entries {
		if ind > 0 {
			ctx.Str(self.Separator)
		}

		uniq := ctx.nextUniq()
		renames := make(map[string]string, 2)

		ctx.push()
		if self.Item != `` {
			name := loopBindingName(self.Item, uniq)
			ctx.setLocal(self.Item, entry.val)
			ctx.bindSynthetic(name, entry.val)
			renames[self.Item] = name
		}
		if self.Index != `` {
			name := loopBindingName(self.Index, uniq)
			ctx.setLocal(self.Index, entry.key)
			ctx.bindSynthetic(name, entry.key)
			renames[self.Index] = name
		}

		scratch := ctx.fork()
		self.Body.Append(scratch)
		ctx.pop()

		ctx.Str(renamePlaceholders(scratch.String(), renames))
	}

	ctx.Str(self.Close)
	return true
}

/*
Rewrites "#{}" placeholders whose leading property name matches one of the
given loop variables, leaving the rest of the placeholder body (nested path,
hints) intact.
*/
func renamePlaceholders(src string, renames map[string]string) string {
	if len(renames) == 0 {
		return src
	}

	tok := Tokenizer{Source: src}
	out := make([]byte, 0, len(src)+16)

	for {
		token := tok.Next()
		if token.IsInvalid() {
			break
		}

		if token.Type != TokenTypePlaceholder {
			out = append(out, token.Text...)
			continue
		}

		body := token.MarkerBody()
		head, rest := headIdent(body)
		name, ok := renames[head]
		if !ok {
			out = append(out, token.Text...)
			continue
		}

		out = append(out, placeholderPrefix...)
		out = append(out, name...)
		out = append(out, rest...)
		out = append(out, markerSuffix)
	}

	return string(out)
}

// Splits a placeholder body into its leading property ident and the rest.
func headIdent(body string) (string, string) {
	trimmed := strings.TrimLeft(body, whitespaceCutset)
	ind := 0
	for ind < len(trimmed) && charsetIdent.has(trimmed[ind]) {
		ind++
	}
	return trimmed[:ind], trimmed[ind:]
}

/*
Variable declaration: evaluates the expression once and binds the result in
the current scope, visible to later siblings and descendants, and forwarded
to the bound statement as a named extra binding.
*/
type BindNode struct {
	Name  string
	Value string
	value exprNode
}

func MakeBindNode(name, value string) BindNode {
	return BindNode{Name: name, Value: value, value: exprFor(value)}
}

// Implement `Node`.
func (self BindNode) Append(ctx *Ctx) bool {
	ctx.bind(self.Name, self.value.eval(ctx.lookup))
	return true
}

// Ordered composite: evaluates each child in order into the same context.
type MixedNode []Node

// Implement `Node`.
func (self MixedNode) Append(ctx *Ctx) bool {
	out := false
	for _, node := range self {
		if node.Append(ctx) {
			out = true
		}
	}
	return out
}
