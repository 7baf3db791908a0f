// Package extract turns uploaded PDF and DOCX documents into plain text.
// Everything operates on the uploaded bytes in memory; nothing is
// written to disk.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format tags the document layout of an upload. It is determined once
// from the uploaded filename and carried alongside the bytes from then
// on; nothing downstream re-derives it.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ErrUnsupportedFormat rejects filenames outside the supported set.
var ErrUnsupportedFormat = errors.New("unsupported document format")

func (f Format) String() string {
	return string(f)
}

// DetectFormat maps a filename extension onto a Format. Matching is
// case-insensitive; anything but .pdf and .docx is rejected.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Text extracts the document's plain text. Page and paragraph texts are
// joined with single newlines, in document order. A document that
// parses cleanly but carries no text returns ("", nil); the caller
// decides what an empty result means.
func Text(data []byte, format Format) (string, error) {
	switch format {
	case FormatPDF:
		return pdfText(data)
	case FormatDOCX:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}
