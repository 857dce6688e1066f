package fingerprint

import (
	"testing"

	"github.com/FocuswithJustin/odfnote/core/xml"
)

// TestSumEmpty verifies digests of empty input against known values.
func TestSumEmpty(t *testing.T) {
	got := Sum(nil)
	if got.SHA256 != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("SHA256 = %s", got.SHA256)
	}
	if got.BLAKE3 != "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262" {
		t.Errorf("BLAKE3 = %s", got.BLAKE3)
	}
	if Text("") != got.BLAKE3 {
		t.Error("Text and Sum disagree")
	}
}

// TestNodes verifies node digests follow serialized content.
func TestNodes(t *testing.T) {
	a := xml.NewElement("text:p")
	a.Append(xml.NewText("same"))
	b := xml.NewElement("text:p")
	b.Append(xml.NewText("same"))

	if Nodes(a) != Nodes(b) {
		t.Error("equal nodes should hash equally")
	}
	if Nodes(a) != Nodes(nil, a) {
		t.Error("nil nodes should be skipped")
	}
	if Nodes(a) != Text(a.OuterXML()) {
		t.Error("Nodes should hash the serialized form")
	}
	b.SetText("different")
	if Nodes(a) == Nodes(b) {
		t.Error("different nodes should hash differently")
	}
}

// TestShort verifies abbreviation.
func TestShort(t *testing.T) {
	if got := Short("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("Short() = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short() = %q", got)
	}
}
