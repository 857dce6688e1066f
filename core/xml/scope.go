package xml

import (
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Attribute names that carry identifiers of name-bearing constructs.
// Annotation names and note ids share one namespace.
const (
	AttrOfficeName = "office:name"
	AttrTextID     = "text:id"
)

var (
	documentBodyExpr = xpath.MustCompile("descendant-or-self::office:body/*[1]")
	namedExpr        = xpath.MustCompile("descendant-or-self::*[@office:name or @text:id]")
)

// DocumentBody returns the content element of the document n belongs to
// (the first child of office:body, such as office:text), or nil when n is
// not attached to a document.
func (n *Node) DocumentBody() *Node {
	if n == nil || n.node == nil {
		return nil
	}
	root := xmlquery.GetRoot(n.node)
	return wrap(xmlquery.QuerySelector(root, documentBodyExpr))
}

// OfficeNames returns the distinct office:name and text:id values used in
// n and its descendants, in document order.
func (n *Node) OfficeNames() []string {
	if n == nil || n.node == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, e := range xmlquery.QuerySelectorAll(n.node, namedExpr) {
		for _, attr := range []string{AttrOfficeName, AttrTextID} {
			v := e.SelectAttr(attr)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			names = append(names, v)
		}
	}
	return names
}

// GetAnnotation returns the first office:annotation named name within n.
func (n *Node) GetAnnotation(name string) *Node {
	return n.findNamed("office:annotation", name)
}

// GetAnnotationEnd returns the first office:annotation-end named name
// within n.
func (n *Node) GetAnnotationEnd(name string) *Node {
	return n.findNamed("office:annotation-end", name)
}

// GetNote returns the first text:note whose text:id is id within n.
func (n *Node) GetNote(id string) *Node {
	if n == nil || n.node == nil {
		return nil
	}
	return n.GetElement("descendant-or-self::text:note[@text:id=" + Literal(id) + "]")
}

func (n *Node) findNamed(tag, name string) *Node {
	if n == nil || n.node == nil || name == "" {
		return nil
	}
	return n.GetElement("descendant-or-self::" + tag + "[@office:name=" + Literal(name) + "]")
}
