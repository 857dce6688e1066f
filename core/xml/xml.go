// Package xml is the document tree model used by the note and annotation
// core. It wraps github.com/antchfx/xmlquery nodes, adds the mutation and
// lookup primitives an ODF editing layer needs, and keeps XPath and
// formatting helpers for whole documents.
//
// Input is checked with an entity-free decoder before xmlquery builds the
// tree, so no entity is ever expanded.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html/charset"

	"github.com/FocuswithJustin/odfnote/core/encoding"
	"github.com/FocuswithJustin/odfnote/core/errors"
)

// Document represents a parsed or constructed XML document.
type Document struct {
	root *xmlquery.Node
}

// FormatOptions controls XML formatting behavior.
type FormatOptions struct {
	Indent string // Indentation string (e.g., "  " or "\t")
}

// Parse checks that data is well-formed and returns it as a Document.
// Failures are *errors.ParseError values carrying the line and column.
func Parse(data []byte) (*Document, error) {
	if err := CheckWellFormed(data); err != nil {
		return nil, err
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Message: err.Error(), Err: err}
	}
	return &Document{root: root}, nil
}

// NewDocument creates a document with an XML declaration and the given
// root element. The root is detached from any previous tree first.
func NewDocument(root *Node) *Document {
	doc := &xmlquery.Node{Type: xmlquery.DocumentNode}
	decl := &xmlquery.Node{Type: xmlquery.DeclarationNode, Data: "xml"}
	xmlquery.AddAttr(decl, "version", "1.0")
	xmlquery.AddAttr(decl, "encoding", "UTF-8")
	xmlquery.AddChild(doc, decl)
	if root != nil && root.node != nil {
		xmlquery.RemoveFromTree(root.node)
		xmlquery.AddChild(doc, root.node)
	}
	return &Document{root: doc}
}

// CheckWellFormed tokenizes data and reports the first syntax error with
// its position. Only the predefined entities are recognised, so external
// and internal entity declarations are never expanded (CWE-611).
func CheckWellFormed(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	decoder.Entity = map[string]string{}
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			line, col := decoder.InputPos()
			return &errors.ParseError{
				Format:  "XML",
				Message: fmt.Sprintf("line %d, column %d: %v", line, col, err),
				Err:     err,
			}
		}
	}
}

// FormatNodes pretty-prints a sequence of nodes, such as the result of
// GetBetween.
func FormatNodes(nodes []*Node, opts FormatOptions) []byte {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if n == nil || n.node == nil {
			continue
		}
		formatNode(&buf, n.node, 0, opts.Indent)
	}
	return buf.Bytes()
}

// formatNode recursively formats an XML node.
func formatNode(w *bytes.Buffer, n *xmlquery.Node, depth int, indent string) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			formatNode(w, child, depth, indent)
		}

	case xmlquery.DeclarationNode:
		w.WriteString("<?xml")
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attr.Name.Local)
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}
		w.WriteString("?>\n")

	case xmlquery.ElementNode:
		writeIndent(w, depth, indent)
		w.WriteString("<")
		w.WriteString(qualifiedName(n))
		for _, attr := range n.Attr {
			w.WriteString(" ")
			if attr.Name.Space != "" {
				w.WriteString(attr.Name.Space)
				w.WriteString(":")
			}
			w.WriteString(attr.Name.Local)
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}

		hasElementChildren := false
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				hasElementChildren = true
				break
			}
		}

		if n.FirstChild == nil {
			w.WriteString("/>\n")
			return
		}
		w.WriteString(">")
		if hasElementChildren {
			w.WriteString("\n")
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			switch child.Type {
			case xmlquery.ElementNode:
				formatNode(w, child, depth+1, indent)
			case xmlquery.TextNode:
				if strings.TrimSpace(child.Data) == "" {
					continue
				}
				if hasElementChildren {
					writeIndent(w, depth+1, indent)
				}
				w.WriteString(encoding.EscapeXMLText(child.Data))
				if hasElementChildren {
					w.WriteString("\n")
				}
			case xmlquery.CharDataNode:
				w.WriteString("<![CDATA[")
				w.WriteString(child.Data)
				w.WriteString("]]>")
			}
		}

		if hasElementChildren {
			writeIndent(w, depth, indent)
		}
		w.WriteString("</")
		w.WriteString(qualifiedName(n))
		w.WriteString(">\n")

	case xmlquery.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			w.WriteString(encoding.EscapeXMLText(text))
			w.WriteString("\n")
		}

	case xmlquery.CommentNode:
		writeIndent(w, depth, indent)
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->\n")
	}
}

func writeIndent(w *bytes.Buffer, depth int, indent string) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d == nil || d.root == nil {
		return nil
	}
	if d.root.Type == xmlquery.ElementNode {
		return &Node{node: d.root}
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// Top returns the document node itself. Lookups from Top see the whole tree.
func (d *Document) Top() *Node {
	if d == nil || d.root == nil {
		return nil
	}
	return &Node{node: d.root}
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if d == nil || d.root == nil {
		return nil, nil
	}
	return (&Node{node: d.root}).XPath(expr)
}

// XPathFirst executes an XPath query and returns the first matching node.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	if d == nil || d.root == nil {
		return nil, nil
	}
	return (&Node{node: d.root}).XPathFirst(expr)
}

// Serialize converts the document back to XML bytes.
func (d *Document) Serialize() []byte {
	if d == nil || d.root == nil {
		return nil
	}
	return []byte(d.root.OutputXML(true))
}

// XPath executes an XPath query relative to n.
func (n *Node) XPath(expr string) ([]*Node, error) {
	if n == nil || n.node == nil {
		return nil, nil
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	return wrapAll(xmlquery.QuerySelectorAll(n.node, compiled)), nil
}

// XPathFirst executes an XPath query relative to n and returns the first
// match, or nil.
func (n *Node) XPathFirst(expr string) (*Node, error) {
	if n == nil || n.node == nil {
		return nil, nil
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	return wrap(xmlquery.QuerySelector(n.node, compiled)), nil
}

// Literal quotes s as an XPath string literal. Values holding both quote
// characters are expressed with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}
