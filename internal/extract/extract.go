// Package extract pulls plain text out of uploaded tender documents.
// Supported formats: PDF, DOCX, TXT, and HTML. Legacy binary .doc files
// are rejected with a descriptive error.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ledongthuc/pdf"
)

// SupportedExtensions lists the upload extensions the extractor accepts,
// lowercase with leading dot.
var SupportedExtensions = []string{".pdf", ".docx", ".doc", ".txt", ".html", ".htm"}

func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// File extracts the text content of the document at path, dispatching on
// the file extension. The returned text is raw; callers normalize it.
func File(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return pdfText(path)
	case ".docx":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		return docxText(raw)
	case ".doc":
		return "", fmt.Errorf("%s: legacy binary .doc format is not readable; convert the document to DOCX or PDF", filepath.Base(path))
	case ".txt":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		return string(raw), nil
	case ".html", ".htm":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		return htmlText(raw)
	default:
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
}

func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: the file may be corrupt or encrypted: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%s: no extractable text found; the PDF is likely image-only or scanned", filepath.Base(path))
	}
	return b.String(), nil
}

func docxText(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var xmlData []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, openErr := f.Open()
			if openErr != nil {
				return "", fmt.Errorf("open document.xml: %w", openErr)
			}
			defer rc.Close()
			xmlData, err = io.ReadAll(rc)
			if err != nil {
				return "", fmt.Errorf("read document.xml: %w", err)
			}
			break
		}
	}
	if len(xmlData) == 0 {
		return "", fmt.Errorf("word/document.xml not found; the file is not a valid DOCX document")
	}

	decoder := xml.NewDecoder(bytes.NewReader(xmlData))
	var b strings.Builder
	inText := false
	for {
		tok, tokenErr := decoder.Token()
		if tokenErr == io.EOF {
			break
		}
		if tokenErr != nil {
			return "", fmt.Errorf("decode document.xml: %w", tokenErr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
			if t.Name.Local == "p" && b.Len() > 0 {
				b.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.WriteString(string(t))
			}
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("no extractable text found in DOCX document")
	}
	return b.String(), nil
}

func htmlText(raw []byte) (string, error) {
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(string(raw))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no extractable text found in HTML document")
	}
	return text, nil
}
