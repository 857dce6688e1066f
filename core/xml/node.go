package xml

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Namespaces maps the ODF prefixes used by this package to their URIs.
var Namespaces = map[string]string{
	"office": "urn:oasis:names:tc:opendocument:xmlns:office:1.0",
	"style":  "urn:oasis:names:tc:opendocument:xmlns:style:1.0",
	"text":   "urn:oasis:names:tc:opendocument:xmlns:text:1.0",
	"table":  "urn:oasis:names:tc:opendocument:xmlns:table:1.0",
	"draw":   "urn:oasis:names:tc:opendocument:xmlns:drawing:1.0",
	"fo":     "urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0",
	"dc":     "http://purl.org/dc/elements/1.1/",
	"meta":   "urn:oasis:names:tc:opendocument:xmlns:meta:1.0",
	"xlink":  "http://www.w3.org/1999/xlink",
}

// Node is an element, text or document node of the tree.
//
// Node values are thin handles: two handles may refer to the same
// underlying node, so compare them with Same rather than ==.
type Node struct {
	node *xmlquery.Node
}

func wrap(n *xmlquery.Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{node: n}
}

func wrapAll(nodes []*xmlquery.Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result
}

// Wrap returns a handle for an xmlquery node.
func Wrap(n *xmlquery.Node) *Node {
	return wrap(n)
}

// Raw returns the underlying xmlquery node.
func (n *Node) Raw() *xmlquery.Node {
	if n == nil {
		return nil
	}
	return n.node
}

// NewElement creates a detached element. A "prefix:local" tag gets the
// prefix split off and, for known ODF prefixes, its namespace URI set.
func NewElement(tag string) *Node {
	prefix, local := splitTag(tag)
	return &Node{node: &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         local,
		Prefix:       prefix,
		NamespaceURI: Namespaces[prefix],
	}}
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{node: &xmlquery.Node{Type: xmlquery.TextNode, Data: text}}
}

func splitTag(tag string) (prefix, local string) {
	if i := strings.IndexByte(tag, ':'); i > 0 {
		return tag[:i], tag[i+1:]
	}
	return "", tag
}

func qualifiedName(n *xmlquery.Node) string {
	if n.Prefix == "" {
		return n.Data
	}
	return n.Prefix + ":" + n.Data
}

func hasTag(n *xmlquery.Node, tag string) bool {
	return n != nil && n.Type == xmlquery.ElementNode && qualifiedName(n) == tag
}

// Same reports whether n and other refer to the same underlying node.
func (n *Node) Same(other *Node) bool {
	if n == nil || other == nil {
		return n == nil && other == nil
	}
	return n.node == other.node
}

// Name returns the local element name.
func (n *Node) Name() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Data
}

// Tag returns the qualified element name ("text:p").
func (n *Node) Tag() string {
	if n == nil || n.node == nil || n.node.Type != xmlquery.ElementNode {
		return ""
	}
	return qualifiedName(n.node)
}

// SetTag renames the element in place.
func (n *Node) SetTag(tag string) {
	if n == nil || n.node == nil {
		return
	}
	prefix, local := splitTag(tag)
	n.node.Prefix = prefix
	n.node.Data = local
	n.node.NamespaceURI = Namespaces[prefix]
}

// Is reports whether n is an element with the given qualified tag.
func (n *Node) Is(tag string) bool {
	return n != nil && hasTag(n.node, tag)
}

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool {
	return n != nil && n.node != nil && n.node.Type == xmlquery.ElementNode
}

// IsText reports whether n is a text or CDATA node.
func (n *Node) IsText() bool {
	return n != nil && n.node != nil &&
		(n.node.Type == xmlquery.TextNode || n.node.Type == xmlquery.CharDataNode)
}

// Parent returns the parent node, or nil for a detached node.
func (n *Node) Parent() *Node {
	if n == nil || n.node == nil {
		return nil
	}
	return wrap(n.node.Parent)
}

// Root returns the topmost ancestor of n (n itself when detached).
func (n *Node) Root() *Node {
	if n == nil || n.node == nil {
		return nil
	}
	return wrap(xmlquery.GetRoot(n.node))
}

// Contains reports whether other is a strict descendant of n.
func (n *Node) Contains(other *Node) bool {
	if n == nil || other == nil || n.node == nil || other.node == nil {
		return false
	}
	for p := other.node.Parent; p != nil; p = p.Parent {
		if p == n.node {
			return true
		}
	}
	return false
}

// Precedes reports whether n comes before other in document order, with
// neither containing the other. Nodes in different trees never precede.
func (n *Node) Precedes(other *Node) bool {
	if n == nil || other == nil || n.node == nil || other.node == nil || n.node == other.node {
		return false
	}
	if n.Contains(other) || other.Contains(n) {
		return false
	}
	common := commonAncestor(n.node, other.node)
	return common != nil && precedes(common, n.node, other.node)
}

// Children returns the child element nodes.
func (n *Node) Children() []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// ChildNodes returns all child nodes, including text.
func (n *Node) ChildNodes() []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	return wrapAll(n.node.ChildNodes())
}

// Attributes returns all attributes of the node keyed by qualified name.
func (n *Node) Attributes() map[string]string {
	if n == nil || n.node == nil {
		return nil
	}
	attrs := make(map[string]string, len(n.node.Attr))
	for _, attr := range n.node.Attr {
		key := attr.Name.Local
		if attr.Name.Space != "" {
			key = attr.Name.Space + ":" + key
		}
		attrs[key] = attr.Value
	}
	return attrs
}

// Attr returns the value of a specific attribute.
func (n *Node) Attr(name string) string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}

// SetAttr sets an attribute, creating it when missing.
func (n *Node) SetAttr(name, value string) {
	if n == nil || n.node == nil {
		return
	}
	n.node.SetAttr(name, value)
}

// RemoveAttr removes an attribute if present.
func (n *Node) RemoveAttr(name string) {
	if n == nil || n.node == nil {
		return
	}
	n.node.RemoveAttr(name)
}

// Append adds child as the last child of n, detaching it first.
func (n *Node) Append(child *Node) {
	if n == nil || child == nil || child.node == nil {
		return
	}
	xmlquery.RemoveFromTree(child.node)
	xmlquery.AddChild(n.node, child.node)
}

// Insert adds child before the element child at position. Text preceding
// the first element stays in front. A position past the last element
// appends.
func (n *Node) Insert(child *Node, position int) {
	if n == nil || child == nil || child.node == nil {
		return
	}
	xmlquery.RemoveFromTree(child.node)
	i := 0
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if i == position {
			insertBefore(c, child.node)
			return
		}
		i++
	}
	xmlquery.AddChild(n.node, child.node)
}

// InsertBefore places child immediately before n.
func (n *Node) InsertBefore(child *Node) {
	if n == nil || n.node == nil || child == nil || child.node == nil || n.node.Parent == nil {
		return
	}
	xmlquery.RemoveFromTree(child.node)
	insertBefore(n.node, child.node)
}

// InsertAfter places child immediately after n.
func (n *Node) InsertAfter(child *Node) {
	if n == nil || n.node == nil || child == nil || child.node == nil || n.node.Parent == nil {
		return
	}
	xmlquery.RemoveFromTree(child.node)
	xmlquery.AddImmediateSibling(n.node, child.node)
}

func insertBefore(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.NextSibling = ref
	n.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else if ref.Parent != nil {
		ref.Parent.FirstChild = n
	}
	ref.PrevSibling = n
}

// Clear removes every child node. Attributes are kept.
func (n *Node) Clear() {
	if n == nil || n.node == nil {
		return
	}
	for n.node.FirstChild != nil {
		xmlquery.RemoveFromTree(n.node.FirstChild)
	}
}

// Delete detaches n and its subtree from the tree. The handle stays usable.
func (n *Node) Delete() {
	if n == nil || n.node == nil {
		return
	}
	xmlquery.RemoveFromTree(n.node)
}

// GetElement returns the first node matching a relative XPath expression,
// usually a child tag such as "text:note-body". Invalid expressions match
// nothing.
func (n *Node) GetElement(expr string) *Node {
	found, err := n.XPathFirst(expr)
	if err != nil {
		return nil
	}
	return found
}

// GetElements returns every node matching a relative XPath expression.
func (n *Node) GetElements(expr string) []*Node {
	found, err := n.XPath(expr)
	if err != nil {
		return nil
	}
	return found
}

// Clone returns a detached deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil || n.node == nil {
		return nil
	}
	return &Node{node: cloneTree(n.node, nil)}
}

// cloneTree deep-copies src. When track is non-nil, every key found in the
// source subtree is mapped to its copy.
func cloneTree(src *xmlquery.Node, track map[*xmlquery.Node]*xmlquery.Node) *xmlquery.Node {
	dst := &xmlquery.Node{
		Type:         src.Type,
		Data:         src.Data,
		Prefix:       src.Prefix,
		NamespaceURI: src.NamespaceURI,
		LineNumber:   src.LineNumber,
	}
	if len(src.Attr) > 0 {
		dst.Attr = make([]xmlquery.Attr, len(src.Attr))
		copy(dst.Attr, src.Attr)
	}
	if src.ProcInst != nil {
		inst := *src.ProcInst
		dst.ProcInst = &inst
	}
	if track != nil {
		if _, ok := track[src]; ok {
			track[src] = dst
		}
	}
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		xmlquery.AddChild(dst, cloneTree(c, track))
	}
	return dst
}

// Text returns the text that precedes the first child element, like the
// leading text of a mixed-content element.
func (n *Node) Text() string {
	if n == nil || n.node == nil {
		return ""
	}
	if n.IsText() {
		return n.node.Data
	}
	var b strings.Builder
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			break
		}
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// SetText replaces the leading text of n. Child elements are kept.
func (n *Node) SetText(text string) {
	if n == nil || n.node == nil {
		return
	}
	if n.IsText() {
		n.node.Data = text
		return
	}
	for c := n.node.FirstChild; c != nil && c.Type != xmlquery.ElementNode; {
		next := c.NextSibling
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			xmlquery.RemoveFromTree(c)
		}
		c = next
	}
	if text == "" {
		return
	}
	t := &xmlquery.Node{Type: xmlquery.TextNode, Data: text}
	if n.node.FirstChild == nil {
		xmlquery.AddChild(n.node, t)
		return
	}
	insertBefore(n.node.FirstChild, t)
}

// TextContent returns all text below n in document order. ODF space, tab
// and line-break elements are expanded.
func (n *Node) TextContent() string {
	if n == nil || n.node == nil {
		return ""
	}
	var b strings.Builder
	writeText(&b, n.node)
	return b.String()
}

func writeText(b *strings.Builder, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode:
		b.WriteString(n.Data)
		return
	case xmlquery.CommentNode, xmlquery.ProcessingInstruction, xmlquery.DeclarationNode:
		return
	}
	if n.Type == xmlquery.ElementNode {
		switch qualifiedName(n) {
		case "text:s":
			count := 1
			if c := n.SelectAttr("text:c"); c != "" {
				if v, err := strconv.Atoi(c); err == nil && v > 0 {
					count = v
				}
			}
			b.WriteString(strings.Repeat(" ", count))
			return
		case "text:tab":
			b.WriteString("\t")
			return
		case "text:line-break":
			b.WriteString("\n")
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

// paragraphContainers hold paragraphs rather than bare text in ODF.
var paragraphContainers = map[string]bool{
	"text:note-body":    true,
	"office:annotation": true,
	"office:text":       true,
	"text:section":      true,
	"text:list-item":    true,
	"table:table-cell":  true,
	"draw:text-box":     true,
}

// SetTextContent replaces all content of n with text. Elements that hold
// paragraphs in ODF get a single text:p carrying the text; any other
// element gets a single text node.
func (n *Node) SetTextContent(text string) {
	if n == nil || n.node == nil {
		return
	}
	n.Clear()
	if paragraphContainers[n.Tag()] {
		p := NewElement("text:p")
		if text != "" {
			p.Append(NewText(text))
		}
		n.Append(p)
		return
	}
	if text != "" {
		n.Append(NewText(text))
	}
}

// InnerText returns the raw concatenated text of the node and its
// descendants as seen by xmlquery.
func (n *Node) InnerText() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// InnerXML returns the inner XML of the node.
func (n *Node) InnerXML() string {
	if n == nil || n.node == nil {
		return ""
	}
	var buf bytes.Buffer
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		buf.WriteString(child.OutputXML(true))
	}
	return buf.String()
}

// OuterXML returns the node serialized with its own tag.
func (n *Node) OuterXML() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.OutputXML(true)
}
