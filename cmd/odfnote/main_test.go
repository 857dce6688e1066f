package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/fingerprint"
	"github.com/FocuswithJustin/odfnote/internal/archive"
)

const testNamespaces = `xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" ` +
	`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/"`

// testContent has a heading between two paragraphs and one footnote.
const testContent = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content ` + testNamespaces + ` office:version="1.2"><office:body><office:text>` +
	`<text:p>The quick brown fox</text:p>` +
	`<text:h text:outline-level="1">Middle</text:h>` +
	`<text:p>jumps over the lazy dog<text:note text:id="ftn1" text:note-class="footnote">` +
	`<text:note-citation>1</text:note-citation><text:note-body><text:p>A classic.</text:p></text:note-body></text:note></text:p>` +
	`</office:text></office:body></office:document-content>`

// Test helper functions

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// runCLI runs odfnote with a config file that does not exist, so that the
// built-in defaults apply.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("odfnote %s: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func listNotes(t *testing.T, path string) []noteView {
	t.Helper()
	var views []noteView
	if err := json.Unmarshal([]byte(mustRun(t, "notes", "list", "--json", path)), &views); err != nil {
		t.Fatalf("decoding notes: %v", err)
	}
	return views
}

func listAnnotations(t *testing.T, path string) []annotationView {
	t.Helper()
	var views []annotationView
	if err := json.Unmarshal([]byte(mustRun(t, "annotations", "list", "--json", path)), &views); err != nil {
		t.Fatalf("decoding annotations: %v", err)
	}
	return views
}

func TestVersionCmd(t *testing.T) {
	out := mustRun(t, "version")
	if !strings.Contains(out, "odfnote version "+version) {
		t.Errorf("version output = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestNotesList(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)

	out := mustRun(t, "notes", "list", path)
	if !strings.Contains(out, "ftn1") || !strings.Contains(out, "[1] A classic.") {
		t.Errorf("notes list output = %q", out)
	}

	views := listNotes(t, path)
	if len(views) != 1 {
		t.Fatalf("notes = %+v", views)
	}
	want := noteView{Source: path, ID: "ftn1", Class: "footnote", Citation: "1", Body: "A classic."}
	if views[0] != want {
		t.Errorf("note = %+v, want %+v", views[0], want)
	}
}

func TestNotesListGlob(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.fodt", testContent)
	createTestFile(t, dir, "b.fodt", testContent)

	out := mustRun(t, "notes", "list", filepath.Join(dir, "*.fodt"))
	if strings.Count(out, "== ") != 2 || strings.Count(out, "ftn1") != 2 {
		t.Errorf("notes list output = %q", out)
	}
}

func TestNotesAdd(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)

	out := mustRun(t, "notes", "add", path, "--paragraph", "lazy dog", "--after", "lazy", "--body", "Not really.")
	if !strings.Contains(out, "Added footnote ftn_1 [2]") {
		t.Errorf("notes add output = %q", out)
	}

	views := listNotes(t, path)
	if len(views) != 2 {
		t.Fatalf("notes = %+v", views)
	}
	if views[0].ID != "ftn_1" || views[0].Citation != "2" || views[0].Body != "Not really." {
		t.Errorf("added note = %+v", views[0])
	}
	if views[1].ID != "ftn1" {
		t.Errorf("existing note = %+v", views[1])
	}
}

func TestNotesAddEndnoteNumbering(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)

	out := mustRun(t, "notes", "add", path, "--paragraph", "quick", "--class", "endnote", "--id", "edn1", "--body", "End.")
	if !strings.Contains(out, "Added endnote edn1 [1]") {
		t.Errorf("notes add output = %q", out)
	}
	if _, err := runCLI(t, "notes", "add", path, "--paragraph", "quick", "--id", "edn1", "--body", "Again."); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("duplicate id error = %v, want invalid input", err)
	}
	if _, err := runCLI(t, "notes", "add", path, "--paragraph", "quick", "--class", "sidenote", "--body", "x"); err == nil {
		t.Error("expected error for unknown class")
	}
}

func TestNotesAddMissingParagraph(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)
	_, err := runCLI(t, "notes", "add", path, "--paragraph", "no such text", "--body", "x")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
	if readFile(t, path) != testContent {
		t.Error("document changed after failed add")
	}
}

func TestNotesAddOut(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "doc.fodt", testContent)
	out := filepath.Join(dir, "copy.fodt")

	mustRun(t, "notes", "add", path, "--paragraph", "quick", "--body", "Copy only.", "--out", out)
	if readFile(t, path) != testContent {
		t.Error("input was modified")
	}
	if views := listNotes(t, out); len(views) != 2 {
		t.Errorf("notes in copy = %+v", views)
	}
}

func TestNotesSetAndDelete(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)

	mustRun(t, "notes", "set", path, "ftn1", "--citation", "*", "--class", "endnote")
	views := listNotes(t, path)
	if len(views) != 1 || views[0].Citation != "*" || views[0].Class != "endnote" || views[0].Body != "A classic." {
		t.Errorf("notes after set = %+v", views)
	}

	if _, err := runCLI(t, "notes", "set", path, "ftn1"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("set without changes error = %v", err)
	}
	if _, err := runCLI(t, "notes", "set", path, "ftn1", "--class", "margin"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("set with bad class error = %v", err)
	}
	if _, err := runCLI(t, "notes", "delete", path, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("delete missing error = %v", err)
	}

	out := mustRun(t, "notes", "delete", path, "ftn1")
	if !strings.Contains(out, "Deleted endnote ftn1") {
		t.Errorf("delete output = %q", out)
	}
	if views := listNotes(t, path); len(views) != 0 {
		t.Errorf("notes after delete = %+v", views)
	}
}

func TestAnnotationsRange(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)

	out := mustRun(t, "annotations", "add", path,
		"--paragraph", "quick", "--before", "quick",
		"--end-paragraph", "lazy", "--after", "jumps",
		"--text", "Check this", "--creator", "Ann")
	if !strings.Contains(out, "Added annotation __Fieldmark__lpod_1") {
		t.Fatalf("annotations add output = %q", out)
	}

	got := strings.TrimSuffix(mustRun(t, "annotations", "extract", path, "__Fieldmark__lpod_1"), "\n")
	if got != "quick brown fox\nMiddle\njumps" {
		t.Errorf("extract = %q", got)
	}

	markup := mustRun(t, "annotations", "extract", "--xml", "--keep-headings", path, "__Fieldmark__lpod_1")
	if !strings.Contains(markup, "<text:h") || !strings.Contains(markup, "Middle") {
		t.Errorf("extract --xml = %q", markup)
	}

	views := listAnnotations(t, path)
	if len(views) != 1 {
		t.Fatalf("annotations = %+v", views)
	}
	v := views[0]
	if !v.Ranged || v.Creator != "Ann" || v.Content != "Check this" || v.Annotated != "quick brown fox\nMiddle\njumps" || v.Date == "" {
		t.Errorf("annotation = %+v", v)
	}
	if want := fingerprint.Short(fingerprint.Text(v.Annotated)); v.Fingerprint != want {
		t.Errorf("fingerprint = %q, want %q", v.Fingerprint, want)
	}
}

func TestAnnotationsPoint(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)

	mustRun(t, "annotations", "add", path, "--paragraph", "lazy", "--text", "Point", "--creator", "Bo", "--name", "c1")
	got := mustRun(t, "annotations", "extract", path, "c1")
	if got != "\n" {
		t.Errorf("point extract = %q, want empty line", got)
	}
	views := listAnnotations(t, path)
	if len(views) != 1 || views[0].Name != "c1" || views[0].Ranged {
		t.Errorf("annotations = %+v", views)
	}

	if _, err := runCLI(t, "annotations", "add", path, "--paragraph", "quick", "--text", "x", "--name", "c1"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("duplicate name error = %v", err)
	}
	if _, err := runCLI(t, "annotations", "add", path, "--paragraph", "quick", "--text", "x", "--name", "ftn1"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("name shared with note id error = %v", err)
	}
}

func TestAnnotationsRenameAndDelete(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)
	mustRun(t, "annotations", "add", path, "--paragraph", "lazy", "--before", "lazy", "--after", "dog",
		"--text", "Dog", "--creator", "Ann", "--name", "c1")

	mustRun(t, "annotations", "rename", path, "c1", "c2")
	got := strings.TrimSuffix(mustRun(t, "annotations", "extract", path, "c2"), "\n")
	if got != "lazy dog" {
		t.Errorf("extract after rename = %q", got)
	}
	if _, err := runCLI(t, "annotations", "extract", path, "c1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("old name error = %v", err)
	}

	mustRun(t, "annotations", "delete", path, "c2")
	content := readFile(t, path)
	if strings.Contains(content, "office:annotation") {
		t.Errorf("annotation markers left behind:\n%s", content)
	}
	if !strings.Contains(content, "lazy dog") {
		t.Errorf("annotated text lost:\n%s", content)
	}
}

func TestValidateCmd(t *testing.T) {
	dir := t.TempDir()
	good := createTestFile(t, dir, "good.fodt", testContent)

	out := mustRun(t, "validate", good)
	if !strings.Contains(out, good+": ok") {
		t.Errorf("validate output = %q", out)
	}

	bad := strings.Replace(testContent, `<text:p>The quick brown fox</text:p>`,
		`<text:p>The <office:annotation office:name="c1"><text:p>No author</text:p></office:annotation>quick brown fox<office:annotation-end office:name="gone"/></text:p>`, 1)
	badPath := createTestFile(t, dir, "bad.fodt", bad)

	out, err := runCLI(t, "validate", good, badPath)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("validate error = %v", err)
	}
	if !strings.Contains(out, "creator") {
		t.Errorf("validate output missing creator violation: %q", out)
	}
	if !strings.Contains(out, `end marker "gone"`) {
		t.Errorf("validate output missing orphan end: %q", out)
	}
	if readFile(t, badPath) != bad {
		t.Error("validate without --fix modified the document")
	}
}

func TestValidateFixFillsDates(t *testing.T) {
	undated := strings.Replace(testContent, `<text:p>The quick brown fox</text:p>`,
		`<text:p>The <office:annotation office:name="c1"><dc:creator>Ann</dc:creator><text:p>Fine</text:p></office:annotation>quick brown fox</text:p>`, 1)
	path := createTestFile(t, t.TempDir(), "doc.fodt", undated)

	out := mustRun(t, "validate", "--fix", path)
	if !strings.Contains(out, "filled in 1 comment date(s)") {
		t.Errorf("validate --fix output = %q", out)
	}
	if !strings.Contains(readFile(t, path), "<dc:date>") {
		t.Error("date not written")
	}
}

func TestCatalogCmds(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "doc.fodt", testContent)
	db := filepath.Join(dir, "catalog.db")
	mustRun(t, "annotations", "add", path, "--paragraph", "lazy", "--before", "lazy", "--after", "dog",
		"--text", "Dog", "--creator", "Ann", "--name", "c1")

	out := mustRun(t, "catalog", "export", "--db", db, path)
	if !strings.Contains(out, path+": 2 entries") {
		t.Errorf("export output = %q", out)
	}
	mustRun(t, "catalog", "export", "--db", db, path)

	out = mustRun(t, "catalog", "list", "--db", db)
	if strings.Count(out, path) != 1 || !strings.Contains(out, "2 entries") {
		t.Errorf("list output = %q", out)
	}

	out = mustRun(t, "catalog", "show", "--db", db, path)
	if !strings.Contains(out, "note ftn1 footnote [1] A classic.") {
		t.Errorf("show output = %q", out)
	}
	if !strings.Contains(out, `on: "lazy dog"`) {
		t.Errorf("show output = %q", out)
	}

	if _, err := runCLI(t, "catalog", "show", "--db", db, "other.fodt"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("show unknown source error = %v", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "doc.fodt", testContent)

	out := mustRun(t, "notes", "delete", "--snapshot-dir", "snaps", path, "ftn1")
	var snap string
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "Snapshot: "); ok {
			snap = rest
		}
	}
	if snap == "" || filepath.Dir(snap) != filepath.Join(dir, "snaps") {
		t.Fatalf("snapshot path = %q, output = %q", snap, out)
	}
	if len(listNotes(t, path)) != 0 {
		t.Fatal("note not deleted")
	}

	show := mustRun(t, "snapshot", "show", snap)
	if !strings.Contains(show, "Source:    "+path) || !strings.Contains(show, "Container: flat") {
		t.Errorf("snapshot show = %q", show)
	}

	mustRun(t, "snapshot", "restore", snap)
	if readFile(t, path) != testContent {
		t.Error("restore did not bring back the original content")
	}

	restored := filepath.Join(dir, "restored.fodt")
	mustRun(t, "snapshot", "restore", snap, "--to", restored)
	if len(listNotes(t, restored)) != 1 {
		t.Error("restore --to wrote wrong content")
	}
}

func TestSnapshotDirEscape(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)
	if _, err := runCLI(t, "notes", "delete", "--snapshot-dir", "../elsewhere", path, "ftn1"); err == nil {
		t.Fatal("expected error for snapshot directory outside the document directory")
	}
	if readFile(t, path) != testContent {
		t.Error("document saved despite rejected snapshot")
	}
}

func TestPackageDocuments(t *testing.T) {
	dir := t.TempDir()
	flat := createTestFile(t, dir, "doc.fodt", testContent)
	src, err := archive.Load(flat)
	if err != nil {
		t.Fatal(err)
	}
	odt := filepath.Join(dir, "doc.odt")
	if err := src.Save(src.Content, odt); err != nil {
		t.Fatal(err)
	}

	mustRun(t, "notes", "add", odt, "--paragraph", "quick", "--after", "fox", "--body", "Packaged.")
	views := listNotes(t, odt)
	if len(views) != 2 || views[0].Body != "Packaged." {
		t.Errorf("notes in package = %+v", views)
	}

	disguised := createTestFile(t, dir, "fake.odt", testContent)
	if _, err := runCLI(t, "notes", "list", disguised); err == nil {
		t.Error("expected error for flat XML named .odt")
	}
}

func TestConfigCmds(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "odfnote.toml")

	out := mustRun(t, "config", "init", cfgPath, "--creator", "Ann")
	if !strings.Contains(out, "Wrote "+cfgPath) {
		t.Errorf("config init output = %q", out)
	}
	if !strings.Contains(readFile(t, cfgPath), "Ann") {
		t.Error("creator not written")
	}
	if _, err := runCLI(t, "config", "init", cfgPath); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("init over existing file error = %v", err)
	}

	// The written file drives later runs.
	doc := createTestFile(t, dir, "doc.fodt", testContent)
	var stdout, stderr bytes.Buffer
	args := []string{"--config", cfgPath, "annotations", "add", doc, "--paragraph", "quick", "--text", "Hi", "--name", "c1"}
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run with config: %v", err)
	}
	views := listAnnotations(t, doc)
	if len(views) != 1 || views[0].Creator != "Ann" {
		t.Errorf("annotations = %+v", views)
	}

	stdout.Reset()
	if err := run(context.Background(), []string{"--config", cfgPath, "config", "path"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout.String()) != cfgPath {
		t.Errorf("config path = %q", stdout.String())
	}
}

func TestBadLogLevel(t *testing.T) {
	if _, err := runCLI(t, "--log-level", "loud", "version"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("error = %v, want invalid input", err)
	}
}

func TestValidateIdenticalDocuments(t *testing.T) {
	dir := t.TempDir()
	a := createTestFile(t, dir, "a.fodt", testContent)
	b := createTestFile(t, dir, "b.fodt", testContent)

	out := mustRun(t, "validate", filepath.Join(dir, "*.fodt"))
	if !strings.Contains(out, a+": ok") || !strings.Contains(out, b+": ok") {
		t.Errorf("validate output = %q", out)
	}
}

func TestValidateWatchStopsWithContext(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	args := []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "validate", "--watch", path}
	if err := run(ctx, args, &stdout, &stderr); err != nil {
		t.Fatalf("validate --watch: %v", err)
	}
	if !strings.Contains(stdout.String(), "Watching 1 document(s)") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestLocatorFlags(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)

	mustRun(t, "annotations", "add", path, "--at", `"quick" .. "jumps" in "lazy dog"`,
		"--text", "Range", "--creator", "Ann", "--name", "r1")
	got := strings.TrimSuffix(mustRun(t, "annotations", "extract", path, "r1"), "\n")
	if got != "quick brown fox\nMiddle\njumps" {
		t.Errorf("extract = %q", got)
	}

	mustRun(t, "notes", "add", path, "--at", `"brown" in "quick brown"`, "--body", "Colour.")
	views := listNotes(t, path)
	if len(views) != 2 || views[0].Body != "Colour." {
		t.Errorf("notes = %+v", views)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"note range", []string{"notes", "add", path, "--at", `"a" .. "b"`, "--body", "x"}},
		{"note at with paragraph", []string{"notes", "add", path, "--at", `"fox"`, "--paragraph", "fox", "--body", "x"}},
		{"note without position", []string{"notes", "add", path, "--body", "x"}},
		{"annotation at with before", []string{"annotations", "add", path, "--at", `"fox"`, "--before", "fox", "--text", "x"}},
		{"annotation without position", []string{"annotations", "add", path, "--text", "x"}},
		{"malformed locator", []string{"annotations", "add", path, "--at", `"fox" ..`, "--text", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("error = %v, want invalid input", err)
			}
		})
	}
}

func TestAnnotationsAddReversedRange(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"earlier end paragraph", []string{"--paragraph", "lazy", "--end-paragraph", "quick"}},
		{"end text before start text", []string{"--paragraph", "quick", "--before", "fox", "--after", "quick"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTestFile(t, t.TempDir(), "doc.fodt", testContent)
			args := append([]string{"annotations", "add", path, "--text", "Backwards", "--name", "c1"}, tt.args...)
			_, err := runCLI(t, args...)
			if !errors.Is(err, errors.ErrStructural) {
				t.Fatalf("err = %v, want structural error", err)
			}
			if got := readFile(t, path); got != testContent {
				t.Error("document was modified")
			}
		})
	}
}
