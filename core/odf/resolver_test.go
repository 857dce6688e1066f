package odf

import (
	"errors"
	"reflect"
	"testing"

	odferrors "github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/xml"
)

// TestScopeOf verifies the governing scope is the body when attached to a
// document and the parent otherwise.
func TestScopeOf(t *testing.T) {
	doc, a, _ := rangeDoc(t)
	scope, err := ScopeOf(a.Node(), "find end tag")
	if err != nil {
		t.Fatal(err)
	}
	if !scope.Same(doc.Body()) {
		t.Errorf("scope = %s, want the body", scope.Tag())
	}

	section := xml.NewElement("text:section")
	p := NewParagraph("")
	section.Append(p)
	m := xml.NewElement(TagAnnotation)
	p.Append(m)
	scope, err = ScopeOf(m, "find end tag")
	if err != nil {
		t.Fatal(err)
	}
	if !scope.Same(p) {
		t.Errorf("scope = %s, want the parent paragraph", scope.Tag())
	}

	_, err = ScopeOf(xml.NewElement(TagAnnotation), "find end tag")
	var se *odferrors.StructuralError
	if !errors.As(err, &se) || se.Operation != "find end tag" {
		t.Errorf("err = %v, want structural error naming the operation", err)
	}
}

// TestDetachedFragmentPairing verifies markers in a fragment pair within
// their shared parent only.
func TestDetachedFragmentPairing(t *testing.T) {
	p := NewParagraph("")
	a, _ := NewAnnotation(AnnotationOptions{Name: "frag"})
	end, _ := NewAnnotationEnd(a, "")
	p.Append(a.Node())
	p.Append(xml.NewText("inside"))
	p.Append(end.Node())

	found, err := a.End()
	if err != nil || found == nil {
		t.Fatalf("End() = %v, %v", found, err)
	}
	text, err := a.AnnotatedText(ExtractOptions{})
	if err != nil || text != "inside" {
		t.Errorf("AnnotatedText() = %q, %v", text, err)
	}

	// An end in a different container is out of reach.
	other := NewParagraph("")
	other.Append(end.Node())
	if found, _ := a.End(); found != nil {
		t.Error("end found outside the fragment scope")
	}
}

// TestResolver verifies lookups and name listing through the Scope
// interface.
func TestResolver(t *testing.T) {
	doc, a, end := rangeDoc(t)
	r := doc.Resolver()

	if got := r.Start(a.Name()); got == nil || !got.Node().Same(a.Node()) {
		t.Error("Start() did not find the annotation")
	}
	if got := r.End(a.Name()); got == nil || !got.Node().Same(end.Node()) {
		t.Error("End() did not find the end")
	}
	if r.Start("missing") != nil || r.End("missing") != nil {
		t.Error("unknown names should resolve to nil")
	}
	if got, want := r.Names(), []string{a.Name()}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	text, err := r.BetweenText(a, end, ExtractOptions{})
	if err != nil || text != "alpha\nHeading\nbeta" {
		t.Errorf("BetweenText() = %q, %v", text, err)
	}
	if nodes, err := r.Between(a, nil, ExtractOptions{}); nodes != nil || err != nil {
		t.Errorf("Between(a, nil) = %v, %v; want nil, nil", nodes, err)
	}
}

// stubScope records lookups to show the resolver only uses the interface.
type stubScope struct {
	names   []string
	lookups []string
}

func (s *stubScope) OfficeNames() []string { return s.names }

func (s *stubScope) GetAnnotation(name string) *xml.Node {
	s.lookups = append(s.lookups, "start:"+name)
	return nil
}

func (s *stubScope) GetAnnotationEnd(name string) *xml.Node {
	s.lookups = append(s.lookups, "end:"+name)
	return nil
}

func (s *stubScope) GetBetween(start, end *xml.Node, opts xml.BetweenOptions) ([]*xml.Node, error) {
	return nil, nil
}

// TestResolverCustomScope verifies any Scope implementation can be used.
func TestResolverCustomScope(t *testing.T) {
	s := &stubScope{names: []string{"x"}}
	r := NewResolver(s)
	r.Start("a")
	r.End("b")
	if want := []string{"start:a", "end:b"}; !reflect.DeepEqual(s.lookups, want) {
		t.Errorf("lookups = %v, want %v", s.lookups, want)
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Names() = %v", got)
	}
}
