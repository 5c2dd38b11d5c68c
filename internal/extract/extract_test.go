package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDOCXText(t *testing.T) {
	doc := `<?xml version="1.0"?><document><body>` +
		`<p><r><t>Scope of Work</t></r></p>` +
		`<p><r><t>The supplier shall deliver within 30 days.</t></r></p>` +
		`</body></document>`
	text, err := docxText(buildDOCX(t, doc))
	if err != nil {
		t.Fatalf("docxText: %v", err)
	}
	if !strings.Contains(text, "Scope of Work") || !strings.Contains(text, "30 days") {
		t.Fatalf("unexpected text: %q", text)
	}
	if !strings.Contains(text, "\n") {
		t.Fatalf("expected paragraph break, got %q", text)
	}
}

func TestDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("other.xml"); err != nil {
		t.Fatal(err)
	}
	_ = zw.Close()
	if _, err := docxText(buf.Bytes()); err == nil {
		t.Fatal("expected error for archive without word/document.xml")
	}
}

func TestFileTxtAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tender.txt")
	if err := os.WriteFile(path, []byte("Eligibility Criteria\nBidders must be registered."), 0o644); err != nil {
		t.Fatal(err)
	}
	text, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if !strings.Contains(text, "Eligibility Criteria") {
		t.Fatalf("unexpected text: %q", text)
	}

	if _, err := File(filepath.Join(dir, "tender.xlsx")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestFileLegacyDoc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tender.doc")
	if err := os.WriteFile(path, []byte{0xd0, 0xcf, 0x11, 0xe0}, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := File(path)
	if err == nil || !strings.Contains(err.Error(), "convert the document") {
		t.Fatalf("expected descriptive .doc error, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	if !Supported("Tender_Final.PDF") {
		t.Fatal("expected .PDF to be supported")
	}
	if Supported("rules.xlsx") {
		t.Fatal("expected .xlsx to be unsupported")
	}
}
