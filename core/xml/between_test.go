package xml

import (
	"errors"
	"testing"

	odferrors "github.com/FocuswithJustin/odfnote/core/errors"
)

func marker(tag, name string) *Node {
	n := NewElement(tag)
	n.SetAttr(AttrOfficeName, name)
	return n
}

func heading(text string) *Node {
	h := NewElement("text:h")
	h.SetAttr("text:outline-level", "2")
	h.Append(NewText(text))
	return h
}

func tags(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		if n.IsText() {
			out = append(out, "#text")
			continue
		}
		out = append(out, n.Tag())
	}
	return out
}

// TestGetBetweenSameParagraph verifies extraction inside one paragraph.
func TestGetBetweenSameParagraph(t *testing.T) {
	start := marker("office:annotation", "a1")
	end := marker("office:annotation-end", "a1")
	body := NewElement("office:text")
	body.Append(paragraph("First ", start, "marked", end, " text."))
	before := body.OuterXML()

	got, err := body.GetBetweenText(start, end, BetweenOptions{})
	if err != nil {
		t.Fatalf("GetBetweenText failed: %v", err)
	}
	if got != "marked" {
		t.Errorf("GetBetweenText = %q, want %q", got, "marked")
	}
	if body.OuterXML() != before {
		t.Error("extraction modified the source tree")
	}
}

// TestGetBetweenAcrossParagraphs verifies straddling paragraphs are
// trimmed and whole ones copied.
func TestGetBetweenAcrossParagraphs(t *testing.T) {
	start := marker("office:annotation", "a1")
	end := marker("office:annotation-end", "a1")
	body := NewElement("office:text")
	body.Append(paragraph("before"))
	body.Append(paragraph("intro ", start, "alpha"))
	body.Append(heading("Heading"))
	body.Append(paragraph("beta", end, " outro"))
	body.Append(paragraph("after"))

	nodes, err := body.GetBetween(start, end, BetweenOptions{})
	if err != nil {
		t.Fatalf("GetBetween failed: %v", err)
	}
	want := []string{"text:p", "text:h", "text:p"}
	if got := tags(nodes); !equalStrings(got, want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	if text := FlattenText(nodes); text != "alpha\nHeading\nbeta" {
		t.Errorf("FlattenText = %q", text)
	}
	for _, n := range nodes {
		if n.Parent() != nil {
			t.Error("results should be detached copies")
		}
	}
}

// TestGetBetweenStripHeaders verifies headings become paragraphs.
func TestGetBetweenStripHeaders(t *testing.T) {
	start := marker("office:annotation", "a1")
	end := marker("office:annotation-end", "a1")
	body := NewElement("office:text")
	body.Append(paragraph(start))
	body.Append(heading("Heading"))
	body.Append(paragraph(end))

	nodes, err := body.GetBetween(start, end, BetweenOptions{StripHeaders: true})
	if err != nil {
		t.Fatalf("GetBetween failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1 (empty straddling paragraphs dropped)", len(nodes))
	}
	if !nodes[0].Is("text:p") || nodes[0].Attr("text:outline-level") != "" {
		t.Errorf("heading not stripped: %s", nodes[0].OuterXML())
	}
}

// TestGetBetweenClean verifies editorial markup is dropped.
func TestGetBetweenClean(t *testing.T) {
	start := marker("office:annotation", "a1")
	end := marker("office:annotation-end", "a1")
	nested := marker("office:annotation", "a2")
	nested.Append(paragraph("comment"))
	body := NewElement("office:text")
	body.Append(paragraph(start, "one ", nested, NewElement("text:bookmark"), "two", end))

	raw, err := body.GetBetweenText(start, end, BetweenOptions{})
	if err != nil {
		t.Fatalf("GetBetweenText failed: %v", err)
	}
	if raw != "one commenttwo" {
		t.Errorf("uncleaned text = %q", raw)
	}

	nodes, err := body.GetBetween(start, end, BetweenOptions{Clean: true})
	if err != nil {
		t.Fatalf("GetBetween failed: %v", err)
	}
	if got := tags(nodes); !equalStrings(got, []string{"#text", "#text"}) {
		t.Errorf("tags = %v", got)
	}
	if text := FlattenText(nodes); text != "one two" {
		t.Errorf("cleaned text = %q", text)
	}
}

// TestGetBetweenEmptyResults verifies degenerate intervals.
func TestGetBetweenEmptyResults(t *testing.T) {
	start := marker("office:annotation", "a1")
	end := marker("office:annotation-end", "a1")
	body := NewElement("office:text")
	body.Append(paragraph(end, "middle", start))

	tests := []struct {
		name       string
		start, end *Node
	}{
		{"reversed", start, end},
		{"same node", start, start},
		{"adjacent", end, body.ChildNodes()[0].ChildNodes()[1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := body.GetBetween(tt.start, tt.end, BetweenOptions{})
			if err != nil {
				t.Fatalf("GetBetween failed: %v", err)
			}
			if len(nodes) != 0 {
				t.Errorf("got %v, want nothing", tags(nodes))
			}
		})
	}
}

// TestGetBetweenNested verifies a marker containing the other yields
// nothing.
func TestGetBetweenNested(t *testing.T) {
	outer := marker("office:annotation", "a1")
	inner := marker("office:annotation-end", "a1")
	outer.Append(inner)
	body := NewElement("office:text")
	body.Append(paragraph(outer))

	nodes, err := body.GetBetween(outer, inner, BetweenOptions{})
	if err != nil || len(nodes) != 0 {
		t.Errorf("GetBetween = %v, %v; want nothing", tags(nodes), err)
	}
}

// TestGetBetweenErrors verifies structural failures.
func TestGetBetweenErrors(t *testing.T) {
	start := marker("office:annotation", "a1")
	end := marker("office:annotation-end", "a1")
	body := NewElement("office:text")
	body.Append(paragraph(start, "x", end))
	elsewhere := NewElement("office:text")
	stray := marker("office:annotation-end", "a1")
	elsewhere.Append(stray)

	var nilScope *Node
	tests := []struct {
		name       string
		scope      *Node
		start, end *Node
	}{
		{"nil scope", nilScope, start, end},
		{"missing end", body, start, nil},
		{"outside scope", body, start, stray},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.scope.GetBetween(tt.start, tt.end, BetweenOptions{})
			if !errors.Is(err, odferrors.ErrStructural) {
				t.Errorf("err = %v, want structural error", err)
			}
		})
	}
}

// TestGetBetweenNestedBlocks verifies paragraphs inside a straddling
// section or list keep their own lines.
func TestGetBetweenNestedBlocks(t *testing.T) {
	start := marker("office:annotation", "a1")
	end := marker("office:annotation-end", "a1")
	item := NewElement("text:list-item")
	item.Append(paragraph("item one"))
	list := NewElement("text:list")
	list.Append(item)
	section := NewElement("text:section")
	section.Append(paragraph("Alpha ", start, "beta"))
	section.Append(list)
	body := NewElement("office:text")
	body.Append(section)
	body.Append(heading("Head"))
	body.Append(paragraph("gamma", end, " delta"))

	got, err := body.GetBetweenText(start, end, BetweenOptions{})
	if err != nil {
		t.Fatalf("GetBetweenText failed: %v", err)
	}
	if want := "beta\nitem one\nHead\ngamma"; got != want {
		t.Errorf("GetBetweenText = %q, want %q", got, want)
	}
}

const indentedContent = `<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
 <office:body>
  <office:text>
   <text:section text:name="S1">
    <text:p>first<office:annotation office:name="c1"/></text:p>
   </text:section>
   <text:p>middle</text:p>
   <text:section text:name="S2">
    <text:p><office:annotation-end office:name="c1"/>last</text:p>
   </text:section>
  </office:text>
 </office:body>
</office:document-content>`

// TestGetBetweenIndented verifies indentation in block containers does not
// keep emptied sections alive or leak into the text.
func TestGetBetweenIndented(t *testing.T) {
	doc := mustParse(t, indentedContent)
	body := doc.Root().DocumentBody()
	start, end := body.GetAnnotation("c1"), body.GetAnnotationEnd("c1")
	if start == nil || end == nil {
		t.Fatal("markers not found")
	}

	nodes, err := body.GetBetween(start, end, BetweenOptions{})
	if err != nil {
		t.Fatalf("GetBetween failed: %v", err)
	}
	if got := tags(nodes); !equalStrings(got, []string{"text:p"}) {
		t.Fatalf("tags = %v, want [text:p]", got)
	}
	if text := FlattenText(nodes); text != "middle" {
		t.Errorf("FlattenText = %q, want %q", text, "middle")
	}
}

// TestFlattenTextSection verifies paragraphs in a section are separated.
func TestFlattenTextSection(t *testing.T) {
	section := NewElement("text:section")
	section.Append(NewText("\n  "))
	section.Append(paragraph("one"))
	section.Append(NewText("\n  "))
	section.Append(paragraph("two"))
	section.Append(paragraph())
	got := FlattenText([]*Node{section, paragraph("three")})
	if got != "one\ntwo\nthree" {
		t.Errorf("FlattenText = %q", got)
	}
}

// TestFlattenText verifies block separation.
func TestFlattenText(t *testing.T) {
	nodes := []*Node{NewText("a"), NewText("b"), paragraph("c"), NewText("d"), heading("e")}
	if got := FlattenText(nodes); got != "ab\nc\nd\ne" {
		t.Errorf("FlattenText = %q", got)
	}
	if FlattenText(nil) != "" {
		t.Error("FlattenText(nil) should be empty")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
