package odf

import (
	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/xml"
)

type contentKind int

const (
	contentUnset contentKind = iota
	contentText
	contentElement
)

// Content is the value of a text-or-element region: either plain text or a
// single structural node. Build it with Text or Element.
type Content struct {
	kind contentKind
	text string
	node *xml.Node
}

// Text returns plain-text content.
func Text(s string) Content {
	return Content{kind: contentText, text: s}
}

// Element returns structural content. A nil node is rejected when the
// content is applied.
func Element(n *xml.Node) Content {
	return Content{kind: contentElement, node: n}
}

// IsZero reports whether c was never set. Constructors treat zero content
// as "not supplied".
func (c Content) IsZero() bool {
	return c.kind == contentUnset
}

// check reports whether c can be applied, without touching any tree.
func (c Content) check(region string) error {
	switch c.kind {
	case contentText:
		return nil
	case contentElement:
		if c.node == nil || !c.node.IsElement() {
			return errors.NewInvalidContent(region, "expected an element node")
		}
		return nil
	default:
		return errors.NewInvalidContent(region, "expected text or an element")
	}
}

// replace removes the children of region that keep rejects and installs c.
// Text becomes a single text:p; an element becomes the only content child.
func (c Content) replace(region *xml.Node, keep func(*xml.Node) bool) error {
	if err := c.check(region.Tag()); err != nil {
		return err
	}
	for _, child := range region.ChildNodes() {
		if keep != nil && keep(child) {
			continue
		}
		child.Delete()
	}
	switch c.kind {
	case contentText:
		p := xml.NewElement("text:p")
		if c.text != "" {
			p.Append(xml.NewText(c.text))
		}
		region.Append(p)
	case contentElement:
		region.Append(c.node)
	}
	return nil
}
