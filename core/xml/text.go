package xml

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/odfnote/core/errors"
)

// InsertAtText inserts child next to the first occurrence of anchor in the
// text below n, splitting the text node that holds it. With after set the
// child lands right after the anchor, otherwise right before it.
//
// An empty anchor appends child (after) or inserts it as the first child
// (before). Anchors spanning several text nodes are not matched.
func (n *Node) InsertAtText(anchor string, after bool, child *Node) error {
	if n == nil || n.node == nil || child == nil || child.node == nil {
		return errors.NewStructural("insert at text", n.Tag(), "nothing to insert into")
	}
	if anchor == "" {
		if after {
			n.Append(child)
		} else {
			xmlquery.RemoveFromTree(child.node)
			if n.node.FirstChild == nil {
				xmlquery.AddChild(n.node, child.node)
			} else {
				insertBefore(n.node.FirstChild, child.node)
			}
		}
		return nil
	}

	target, idx := findText(n.node, anchor)
	if target == nil {
		return errors.NewNotFound("text", anchor)
	}
	split := idx
	if after {
		split += len(anchor)
	}
	xmlquery.RemoveFromTree(child.node)

	head, tail := target.Data[:split], target.Data[split:]
	switch {
	case head == "":
		insertBefore(target, child.node)
	case tail == "":
		xmlquery.AddImmediateSibling(target, child.node)
	default:
		target.Data = head
		xmlquery.AddImmediateSibling(target, child.node)
		rest := &xmlquery.Node{Type: xmlquery.TextNode, Data: tail}
		xmlquery.AddImmediateSibling(child.node, rest)
	}
	return nil
}

// opaqueTags hold their own content; anchors are never searched inside them.
var opaqueTags = map[string]bool{
	"text:note":         true,
	"office:annotation": true,
}

func findText(n *xmlquery.Node, anchor string) (*xmlquery.Node, int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode:
			if i := strings.Index(c.Data, anchor); i >= 0 {
				return c, i
			}
		case xmlquery.ElementNode:
			if opaqueTags[qualifiedName(c)] {
				continue
			}
			if found, i := findText(c, anchor); found != nil {
				return found, i
			}
		}
	}
	return nil, -1
}
