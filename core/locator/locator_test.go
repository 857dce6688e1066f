package locator

import (
	"testing"

	"github.com/FocuswithJustin/odfnote/core/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		start Point
		end   *Point
	}{
		{`"quick"`, Point{Text: "quick"}, nil},
		{`"dog" in "lazy dog"`, Point{Text: "dog", Paragraph: "lazy dog"}, nil},
		{`"" in "Intro"`, Point{Paragraph: "Intro"}, nil},
		{`"quick" .. "jumps"`, Point{Text: "quick"}, &Point{Text: "jumps"}},
		{`"quick".."jumps" in "lazy"`, Point{Text: "quick"}, &Point{Text: "jumps", Paragraph: "lazy"}},
		{`  "a \"b\"" in "c\td"  ..  "e"  `, Point{Text: `a "b"`, Paragraph: "c\td"}, &Point{Text: "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if r.Start != tt.start {
				t.Errorf("Start = %+v, want %+v", r.Start, tt.start)
			}
			if (r.End == nil) != (tt.end == nil) {
				t.Fatalf("End = %+v, want %+v", r.End, tt.end)
			}
			if tt.end != nil && *r.End != *tt.end {
				t.Errorf("End = %+v, want %+v", *r.End, *tt.end)
			}
			if r.Ranged() != (tt.end != nil) {
				t.Errorf("Ranged() = %v", r.Ranged())
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		``,
		`quick`,
		`"quick" ..`,
		`"quick" in`,
		`"quick" near "fox"`,
		`"unterminated`,
		`"a" .. "b" .. "c"`,
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			var parseErr *errors.ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("Parse(%q) error = %v, want ParseError", input, err)
			}
		})
	}
}

func TestParseEmptyAnchorNeedsParagraph(t *testing.T) {
	_, err := Parse(`"a" .. ""`)
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestPointIn(t *testing.T) {
	if got := (Point{Text: "fox"}).In(); got != "fox" {
		t.Errorf("In() = %q", got)
	}
	if got := (Point{Text: "fox", Paragraph: "brown fox"}).In(); got != "brown fox" {
		t.Errorf("In() = %q", got)
	}
}

func TestString(t *testing.T) {
	r, err := Parse(`"quick" .. "jumps" in "lazy"`)
	if err != nil {
		t.Fatal(err)
	}
	want := `"quick" .. "jumps" in "lazy"`
	if r.String() != want {
		t.Errorf("String() = %q, want %q", r.String(), want)
	}
}
