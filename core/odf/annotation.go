package odf

import (
	"strings"
	"time"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/xml"
)

// Element names of annotations.
const (
	TagAnnotation    = "office:annotation"
	TagAnnotationEnd = "office:annotation-end"

	tagCreator    = "dc:creator"
	tagDate       = "dc:date"
	tagDateString = "meta:date-string"
)

// DateLayout is the dc:date layout written on annotations.
const DateLayout = "2006-01-02T15:04:05"

// dateLayouts are accepted when reading dc:date.
var dateLayouts = []string{DateLayout, "2006-01-02T15:04:05.999999999", time.RFC3339Nano, "2006-01-02"}

// now is replaced in tests.
var now = time.Now

// AnnotationOptions holds the parts of a new annotation. All are optional.
type AnnotationOptions struct {
	// Content is the comment text or element. Zero means none.
	Content Content
	Creator string
	// Date defaults to the current time.
	Date time.Time
	// Name is generated when empty.
	Name string
	// Parent is the element the annotation is about to be inserted into.
	// It only scopes name generation; the annotation is not inserted.
	Parent *xml.Node
	// Allocator generates the name; DefaultAllocator when nil.
	Allocator *NameAllocator
}

// ExtractOptions controls AnnotatedNodes and AnnotatedText.
type ExtractOptions = xml.BetweenOptions

// DefaultExtractOptions strips headings and cleans editorial markup.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{StripHeaders: true, Clean: true}
}

// Annotation is the start marker of a comment. Used alone it is a point
// annotation carrying its own content; with a matching AnnotationEnd it
// marks a range.
type Annotation struct {
	node *xml.Node
}

// NewAnnotation builds a detached office:annotation.
func NewAnnotation(opts AnnotationOptions) (*Annotation, error) {
	if !opts.Content.IsZero() {
		if err := opts.Content.check(TagAnnotation); err != nil {
			return nil, err
		}
	}

	name := opts.Name
	if name == "" {
		alloc := opts.Allocator
		if alloc == nil {
			alloc = DefaultAllocator
		}
		name = alloc.UniqueOfficeName(opts.Parent)
	}

	a := &Annotation{node: xml.NewElement(TagAnnotation)}
	a.SetName(name)
	if opts.Creator != "" {
		a.SetCreator(opts.Creator)
	}
	date := opts.Date
	if date.IsZero() {
		date = now()
	}
	a.SetDate(date)
	if !opts.Content.IsZero() {
		if err := a.SetContent(opts.Content); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// AnnotationFrom wraps an existing office:annotation element.
func AnnotationFrom(node *xml.Node) (*Annotation, error) {
	if !node.Is(TagAnnotation) {
		return nil, errors.NewConstruction(TagAnnotation, "element is "+node.Tag())
	}
	return &Annotation{node: node}, nil
}

// Node returns the underlying element.
func (a *Annotation) Node() *xml.Node { return a.node }

// Name returns the office:name shared with the end marker.
func (a *Annotation) Name() string { return a.node.Attr(xml.AttrOfficeName) }

// SetName renames the annotation. A previously paired end keeps its old
// name and is no longer found.
func (a *Annotation) SetName(name string) { a.node.SetAttr(xml.AttrOfficeName, name) }

// Creator returns the dc:creator text.
func (a *Annotation) Creator() string {
	return a.node.GetElement(tagCreator).TextContent()
}

// SetCreator sets the dc:creator text.
func (a *Annotation) SetCreator(creator string) {
	a.metadata(tagCreator, 0).SetTextContent(creator)
}

// Date returns the parsed dc:date, or the zero time when it is missing or
// unreadable.
func (a *Annotation) Date() time.Time {
	raw := a.rawDate()
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SetDate sets dc:date, truncated to seconds.
func (a *Annotation) SetDate(t time.Time) {
	pos := 0
	if a.node.GetElement(tagCreator) != nil {
		pos = 1
	}
	a.metadata(tagDate, pos).SetTextContent(t.Format(DateLayout))
}

func (a *Annotation) rawDate() string {
	return a.node.GetElement(tagDate).TextContent()
}

// metadata returns the metadata child tag, creating it at element
// position pos.
func (a *Annotation) metadata(tag string, pos int) *xml.Node {
	if el := a.node.GetElement(tag); el != nil {
		return el
	}
	el := xml.NewElement(tag)
	a.node.Insert(el, pos)
	return el
}

func isMetadata(n *xml.Node) bool {
	return n.Is(tagCreator) || n.Is(tagDate) || n.Is(tagDateString)
}

// Content returns the text of the annotation body, excluding creator and
// date. Paragraphs are separated by newlines.
func (a *Annotation) Content() string {
	return xml.FlattenText(a.contentNodes())
}

// ContentNodes returns the body children, excluding creator and date.
func (a *Annotation) ContentNodes() []*xml.Node {
	return a.contentNodes()
}

func (a *Annotation) contentNodes() []*xml.Node {
	var nodes []*xml.Node
	for _, child := range a.node.ChildNodes() {
		if isMetadata(child) || (child.IsText() && strings.TrimSpace(child.Text()) == "") {
			continue
		}
		nodes = append(nodes, child)
	}
	return nodes
}

// SetContent replaces the annotation body. Creator and date are kept.
func (a *Annotation) SetContent(c Content) error {
	return c.replace(a.node, isMetadata)
}

// End returns the matching end marker in the governing scope, or nil when
// there is none. It fails when the annotation has no parent.
func (a *Annotation) End() (*AnnotationEnd, error) {
	scope, err := ScopeOf(a.node, "find end tag")
	if err != nil {
		return nil, err
	}
	return NewResolver(scope).End(a.Name()), nil
}

// AnnotatedNodes returns copies of the content between this annotation and
// its end marker. Without an end marker the result is nil: a point
// annotation never spans the rest of the document.
func (a *Annotation) AnnotatedNodes(opts ExtractOptions) ([]*xml.Node, error) {
	end, err := a.End()
	if err != nil || end == nil {
		return nil, err
	}
	return NewResolver(ExtractionScopeOf(a.node)).Between(a, end, opts)
}

// AnnotatedText is AnnotatedNodes flattened to text; "" without an end
// marker.
func (a *Annotation) AnnotatedText(opts ExtractOptions) (string, error) {
	nodes, err := a.AnnotatedNodes(opts)
	if err != nil {
		return "", err
	}
	return xml.FlattenText(nodes), nil
}

// Delete removes target, which must be inside the annotation, or with a
// nil target removes the annotation together with its end marker. The end
// goes first so that no orphaned end survives.
func (a *Annotation) Delete(target *xml.Node) error {
	if target != nil {
		if !a.node.Contains(target) {
			return errors.NewStructural("delete", TagAnnotation, "target is not inside the annotation")
		}
		target.Delete()
		return nil
	}
	end, err := a.End()
	if err != nil {
		return err
	}
	if end != nil {
		end.node.Delete()
	}
	a.node.Delete()
	return nil
}

// Validate reports an empty body or a missing creator. A missing date is
// not reported: it is set to the current time. This is the only read-side
// method that modifies the annotation.
func (a *Annotation) Validate() []error {
	var violations []error
	if a.Content() == "" {
		violations = append(violations,
			errors.NewValidation(TagAnnotation, "content", "annotation must have a body"))
	}
	if a.Creator() == "" {
		violations = append(violations,
			errors.NewValidation(TagAnnotation, "creator", "annotation must have a creator"))
	}
	a.normalizeDate()
	return violations
}

func (a *Annotation) normalizeDate() {
	if a.rawDate() == "" {
		a.SetDate(now())
	}
}

// AnnotationEnd closes the range opened by the Annotation of the same name.
// An end without a matching start is ignored by extraction.
type AnnotationEnd struct {
	node *xml.Node
}

// NewAnnotationEnd builds a detached office:annotation-end. The name comes
// from start when given, else from name; without either it fails and
// nothing is built.
func NewAnnotationEnd(start *Annotation, name string) (*AnnotationEnd, error) {
	if start != nil {
		name = start.Name()
	}
	if name == "" {
		return nil, errors.NewConstruction(TagAnnotationEnd, "end marker requires a name")
	}
	e := &AnnotationEnd{node: xml.NewElement(TagAnnotationEnd)}
	e.SetName(name)
	return e, nil
}

// AnnotationEndFrom wraps an existing office:annotation-end element.
func AnnotationEndFrom(node *xml.Node) (*AnnotationEnd, error) {
	if !node.Is(TagAnnotationEnd) {
		return nil, errors.NewConstruction(TagAnnotationEnd, "element is "+node.Tag())
	}
	return &AnnotationEnd{node: node}, nil
}

// Node returns the underlying element.
func (e *AnnotationEnd) Node() *xml.Node { return e.node }

// Name returns the office:name.
func (e *AnnotationEnd) Name() string { return e.node.Attr(xml.AttrOfficeName) }

// SetName sets the office:name.
func (e *AnnotationEnd) SetName(name string) { e.node.SetAttr(xml.AttrOfficeName, name) }

// Start returns the annotation this end closes, or nil. It fails when the
// end marker has no parent.
func (e *AnnotationEnd) Start() (*Annotation, error) {
	scope, err := ScopeOf(e.node, "find start tag")
	if err != nil {
		return nil, err
	}
	return NewResolver(scope).Start(e.Name()), nil
}

// Delete removes the end marker only; its start is left alone.
func (e *AnnotationEnd) Delete() { e.node.Delete() }
