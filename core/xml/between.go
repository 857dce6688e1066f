package xml

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/odfnote/core/errors"
)

// BetweenOptions controls post-processing of GetBetween results.
type BetweenOptions struct {
	// StripHeaders retags text:h headings as text:p paragraphs.
	StripHeaders bool
	// Clean drops change-tracking, bookmark and nested annotation markup.
	Clean bool
}

// editorialTags are removed from extracted content when cleaning.
var editorialTags = map[string]bool{
	"text:change":               true,
	"text:change-start":         true,
	"text:change-end":           true,
	"text:tracked-changes":      true,
	"text:changed-region":       true,
	"office:annotation":         true,
	"office:annotation-end":     true,
	"text:bookmark":             true,
	"text:bookmark-start":       true,
	"text:bookmark-end":         true,
	"text:reference-mark":       true,
	"text:reference-mark-start": true,
	"text:reference-mark-end":   true,
	"text:soft-page-break":      true,
}

// headingAttrs only make sense on text:h.
var headingAttrs = []string{
	"text:outline-level",
	"text:is-list-header",
	"text:restart-numbering",
	"text:start-value",
}

// blockTags are separated by a newline when flattened to text.
var blockTags = map[string]bool{
	"text:p":           true,
	"text:h":           true,
	"text:list":        true,
	"text:list-item":   true,
	"text:list-header": true,
	"text:section":     true,
	"table:table":      true,
	"table:table-row":  true,
	"table:table-cell": true,
}

// elementOnlyTags hold block content only. Text directly inside them is
// indentation and carries no meaning.
var elementOnlyTags = map[string]bool{
	"office:body":      true,
	"office:text":      true,
	"text:section":     true,
	"text:list":        true,
	"text:list-item":   true,
	"text:list-header": true,
	"text:note-body":   true,
	"table:table":      true,
	"table:table-row":  true,
	"table:table-cell": true,
}

// GetBetween returns copies of the content lying strictly between start
// and end in document order. Both markers must be descendants of n.
//
// Nodes fully inside the interval are copied whole; nodes that contain a
// marker contribute only their in-interval part. The tree under n is never
// modified. The result is empty when start and end are the same node, when
// end precedes start, or when one marker contains the other.
func (n *Node) GetBetween(start, end *Node, opts BetweenOptions) ([]*Node, error) {
	if n == nil || n.node == nil {
		return nil, errors.NewStructural("extract range", "", "no scope available")
	}
	if start == nil || end == nil || start.node == nil || end.node == nil {
		return nil, errors.NewStructural("extract range", n.Tag(), "missing marker")
	}
	if start.node == end.node {
		return nil, nil
	}
	if !n.containsOrSelf(start.node) || !n.containsOrSelf(end.node) {
		return nil, errors.NewStructural("extract range", n.Tag(), "markers are outside the scope")
	}
	if start.Contains(end) || end.Contains(start) {
		return nil, nil
	}

	common := commonAncestor(start.node, end.node)
	if common == nil {
		return nil, errors.NewStructural("extract range", n.Tag(), "markers are in different trees")
	}
	if !precedes(common, start.node, end.node) {
		return nil, nil
	}

	track := map[*xmlquery.Node]*xmlquery.Node{start.node: nil, end.node: nil}
	clone := cloneTree(common, track)
	cs, ce := track[start.node], track[end.node]

	var straddling []*xmlquery.Node
	for x := cs; x != clone; x = x.Parent {
		for x.PrevSibling != nil {
			xmlquery.RemoveFromTree(x.PrevSibling)
		}
		if x != cs {
			straddling = append(straddling, x)
		}
	}
	for x := ce; x != clone; x = x.Parent {
		for x.NextSibling != nil {
			xmlquery.RemoveFromTree(x.NextSibling)
		}
		if x != ce {
			straddling = append(straddling, x)
		}
	}
	xmlquery.RemoveFromTree(cs)
	xmlquery.RemoveFromTree(ce)
	dropIndentation(clone)

	// straddling holds ancestors bottom-up per marker, so emptied inner
	// containers go before their parents are checked.
	for _, s := range straddling {
		if blank(s) {
			xmlquery.RemoveFromTree(s)
		}
	}

	var result []*Node
	for c := clone.FirstChild; c != nil; {
		next := c.NextSibling
		xmlquery.RemoveFromTree(c)
		if opts.Clean && c.Type == xmlquery.ElementNode && editorialTags[qualifiedName(c)] {
			c = next
			continue
		}
		if opts.Clean {
			clean(c)
		}
		if opts.StripHeaders {
			stripHeaders(c)
		}
		result = append(result, &Node{node: c})
		c = next
	}
	return result, nil
}

// GetBetweenText is GetBetween flattened with FlattenText.
func (n *Node) GetBetweenText(start, end *Node, opts BetweenOptions) (string, error) {
	nodes, err := n.GetBetween(start, end, opts)
	if err != nil {
		return "", err
	}
	return FlattenText(nodes), nil
}

// FlattenText concatenates the text of nodes. Block elements such as
// paragraphs and headings are separated from their neighbours by a newline
// at any depth, so paragraphs inside a section or list stay on their own
// lines. Blocks without text add no empty lines.
func FlattenText(nodes []*Node) string {
	var f flattener
	for _, n := range nodes {
		if n == nil || n.node == nil {
			continue
		}
		f.walk(n.node)
	}
	return f.b.String()
}

type flattener struct {
	b strings.Builder
	// brk is set when the next text must start on a new line.
	brk bool
}

func (f *flattener) write(s string) {
	if s == "" {
		return
	}
	if f.brk && f.b.Len() > 0 {
		f.b.WriteString("\n")
	}
	f.brk = false
	f.b.WriteString(s)
}

func (f *flattener) walk(n *xmlquery.Node) {
	name := ""
	if n.Type == xmlquery.ElementNode {
		name = qualifiedName(n)
	}
	if !blockTags[name] && !elementOnlyTags[name] {
		var b strings.Builder
		writeText(&b, n)
		f.write(b.String())
		return
	}
	f.brk = true
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if elementOnlyTags[name] && isIndentation(c) {
			continue
		}
		f.walk(c)
	}
	f.brk = true
}

// isIndentation reports whether n is a text node holding only whitespace.
func isIndentation(n *xmlquery.Node) bool {
	return n.Type == xmlquery.TextNode && strings.TrimSpace(n.Data) == ""
}

// blank reports whether n has no children other than whitespace text.
func blank(n *xmlquery.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !isIndentation(c) {
			return false
		}
	}
	return true
}

// dropIndentation removes whitespace-only text from element-only
// containers at or below n.
func dropIndentation(n *xmlquery.Node) {
	if n.Type != xmlquery.ElementNode {
		return
	}
	prune := elementOnlyTags[qualifiedName(n)]
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if prune && isIndentation(c) {
			xmlquery.RemoveFromTree(c)
		} else {
			dropIndentation(c)
		}
		c = next
	}
}

func (n *Node) containsOrSelf(x *xmlquery.Node) bool {
	for p := x; p != nil; p = p.Parent {
		if p == n.node {
			return true
		}
	}
	return false
}

func commonAncestor(a, b *xmlquery.Node) *xmlquery.Node {
	seen := make(map[*xmlquery.Node]bool)
	for p := a; p != nil; p = p.Parent {
		seen[p] = true
	}
	for p := b; p != nil; p = p.Parent {
		if seen[p] {
			return p
		}
	}
	return nil
}

// precedes reports whether a comes before b among the descendants of
// their common ancestor.
func precedes(common, a, b *xmlquery.Node) bool {
	branch := func(x *xmlquery.Node) *xmlquery.Node {
		for x.Parent != common {
			x = x.Parent
		}
		return x
	}
	ba, bb := branch(a), branch(b)
	for s := ba.NextSibling; s != nil; s = s.NextSibling {
		if s == bb {
			return true
		}
	}
	return false
}

func clean(n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == xmlquery.ElementNode && editorialTags[qualifiedName(c)] {
			xmlquery.RemoveFromTree(c)
		} else {
			clean(c)
		}
		c = next
	}
}

func stripHeaders(n *xmlquery.Node) {
	if hasTag(n, "text:h") {
		n.Prefix = "text"
		n.Data = "p"
		for _, attr := range headingAttrs {
			n.RemoveAttr(attr)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		stripHeaders(c)
	}
}
