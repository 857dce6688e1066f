// Package locator parses the text positions used on the command line to
// place notes and comments.
//
// A locator names an anchor text and, optionally, the paragraph to look
// for it in; a range joins two locators with "..":
//
//	"quick"
//	"dog" in "the lazy dog"
//	"quick" .. "jumps" in "lazy dog"
//
// When no paragraph is given, the first paragraph containing the anchor is
// used. Strings use Go escaping.
package locator

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/odfnote/core/errors"
)

// Point is one anchor position.
type Point struct {
	// Text is the anchor. Empty means the paragraph boundary.
	Text string
	// Paragraph identifies the paragraph; empty means the first paragraph
	// containing Text.
	Paragraph string
}

// In returns the text that identifies the paragraph of p.
func (p Point) In() string {
	if p.Paragraph != "" {
		return p.Paragraph
	}
	return p.Text
}

func (p Point) String() string {
	if p.Paragraph == "" {
		return fmt.Sprintf("%q", p.Text)
	}
	return fmt.Sprintf("%q in %q", p.Text, p.Paragraph)
}

// Range is a start point and an optional end point.
type Range struct {
	Start Point
	End   *Point
}

// Ranged reports whether r has an end point.
func (r Range) Ranged() bool { return r.End != nil }

func (r Range) String() string {
	if r.End == nil {
		return r.Start.String()
	}
	return r.Start.String() + " .. " + r.End.String()
}

//nolint:govet // participle grammar tags are not standard struct tags
type rangeGrammar struct {
	Start *pointGrammar `@@`
	End   *pointGrammar `( ".." @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type pointGrammar struct {
	Text      string  `@String`
	Paragraph *string `( "in" @String )?`
}

var locatorLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Keyword", Pattern: `[A-Za-z]+`},
	{Name: "Range", Pattern: `\.\.`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var locatorParser = participle.MustBuild[rangeGrammar](
	participle.Lexer(locatorLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace"),
)

// Parse parses a locator or a range of two locators.
func Parse(s string) (*Range, error) {
	g, err := locatorParser.ParseString("", s)
	if err != nil {
		return nil, errors.NewParse("locator", s, err.Error())
	}
	r := &Range{Start: g.Start.point()}
	if g.End != nil {
		end := g.End.point()
		r.End = &end
	}
	for _, p := range []*Point{&r.Start, r.End} {
		if p != nil && p.In() == "" {
			return nil, errors.NewValidation("locator", "paragraph", "an empty anchor needs a paragraph: \"\" in \"...\"")
		}
	}
	return r, nil
}

func (g *pointGrammar) point() Point {
	p := Point{Text: g.Text}
	if g.Paragraph != nil {
		p.Paragraph = *g.Paragraph
	}
	return p
}
