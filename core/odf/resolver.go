package odf

import (
	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/xml"
)

// Scope is what the annotation core needs from the container that governs
// name uniqueness and partner lookup. *xml.Node implements it.
type Scope interface {
	OfficeNames() []string
	GetAnnotation(name string) *xml.Node
	GetAnnotationEnd(name string) *xml.Node
	GetBetween(start, end *xml.Node, opts xml.BetweenOptions) ([]*xml.Node, error)
}

var _ Scope = (*xml.Node)(nil)

// ScopeOf returns the governing scope for partner lookup from marker: the
// document body when marker belongs to a document, else its parent. A
// detached marker has no scope; op names the attempted operation in the
// returned error.
func ScopeOf(marker *xml.Node, op string) (*xml.Node, error) {
	parent := marker.Parent()
	if parent == nil {
		return nil, errors.NewStructural(op, marker.Tag(), "no parent available")
	}
	if body := marker.DocumentBody(); body != nil {
		return body, nil
	}
	return parent, nil
}

// ExtractionScopeOf returns the container extraction walks: the document
// body when there is one, else the root of marker's tree.
func ExtractionScopeOf(marker *xml.Node) *xml.Node {
	if body := marker.DocumentBody(); body != nil {
		return body
	}
	return marker.Root()
}

// Resolver pairs annotation markers by name within one scope. Pairing is
// always a fresh lookup; markers never hold references to each other.
type Resolver struct {
	scope Scope
}

// NewResolver returns a resolver bound to scope.
func NewResolver(scope Scope) *Resolver {
	return &Resolver{scope: scope}
}

// Start returns the first annotation named name, or nil.
func (r *Resolver) Start(name string) *Annotation {
	node := r.scope.GetAnnotation(name)
	if node == nil {
		return nil
	}
	return &Annotation{node: node}
}

// End returns the first annotation end named name, or nil.
func (r *Resolver) End(name string) *AnnotationEnd {
	node := r.scope.GetAnnotationEnd(name)
	if node == nil {
		return nil
	}
	return &AnnotationEnd{node: node}
}

// Between extracts the content between start and end. A nil end yields
// nil, never the rest of the scope.
func (r *Resolver) Between(start *Annotation, end *AnnotationEnd, opts ExtractOptions) ([]*xml.Node, error) {
	if start == nil || end == nil {
		return nil, nil
	}
	return r.scope.GetBetween(start.node, end.node, opts)
}

// BetweenText is Between flattened to text.
func (r *Resolver) BetweenText(start *Annotation, end *AnnotationEnd, opts ExtractOptions) (string, error) {
	nodes, err := r.Between(start, end, opts)
	if err != nil {
		return "", err
	}
	return xml.FlattenText(nodes), nil
}

// Names returns every name already used in the scope.
func (r *Resolver) Names() []string {
	return r.scope.OfficeNames()
}
