// Package extract turns uploaded document files into plain text.
// Supported formats: TXT, PDF, DOC/DOCX and HTML, detected by file extension.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType is returned for file extensions outside the accepted set.
var ErrUnsupportedType = errors.New("unsupported file type (allowed: txt, pdf, doc, docx, html, htm)")

// ErrMalformedFile is returned when a file's container or markup cannot be
// parsed; the upload is bad, not the server.
var ErrMalformedFile = errors.New("malformed or corrupt document")

// Text extracts plain text from a document based on its filename extension.
func Text(filename string, content []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return plainText(content), nil
	case ".pdf":
		return pdfText(content)
	case ".doc", ".docx":
		return docxText(content)
	case ".html", ".htm":
		return htmlText(content)
	default:
		return "", ErrUnsupportedType
	}
}

// Supported reports whether the filename has an accepted extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".pdf", ".doc", ".docx", ".html", ".htm":
		return true
	}
	return false
}

// ContentTypeFor maps an accepted extension to its MIME type for storage.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".html", ".htm":
		return "text/html"
	}
	return "application/octet-stream"
}

// plainText decodes bytes as UTF-8, dropping invalid sequences.
func plainText(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), "")
}

func pdfText(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open pdf: %v", ErrMalformedFile, err)
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
