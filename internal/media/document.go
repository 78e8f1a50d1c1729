package media

import (
	"archive/zip"
	"bytes"
	"compress/zlib"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ExtractDocumentText pulls plain text out of a PDF or DOCX payload,
// capped at maxDocumentPages. Anything else falls back to treating the
// payload as already-plain text.
func ExtractDocumentText(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return extractPDFText(data)
	case bytes.HasPrefix(data, zipMagic) && looksLikeOOXML(data):
		return extractDOCXText(data)
	default:
		return string(data), nil
	}
}

// pdfStreamPattern matches a single PDF stream object's compressed body.
var pdfStreamPattern = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)

// pdfTextOperatorPattern matches literal-string operands of Tj/TJ text
// showing operators within an extracted content stream.
var pdfTextOperatorPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[Jj]`)

// extractPDFText is a minimal content-stream walker: it inflates each
// FlateDecode stream and pulls text shown via the Tj/TJ operators. It
// does not build a full object graph or honor page boundaries precisely,
// so the maxDocumentPages cap is approximated by stopping once that many
// streams have been read.
func extractPDFText(data []byte) (string, error) {
	var text strings.Builder
	matches := pdfStreamPattern.FindAllSubmatch(data, -1)

	pages := 0
	for _, m := range matches {
		if pages >= maxDocumentPages {
			break
		}
		inflated, err := inflate(m[1])
		if err != nil {
			// Not every stream is FlateDecode-compressed text (some are
			// images or fonts); skip ones that don't inflate cleanly.
			continue
		}

		for _, tm := range pdfTextOperatorPattern.FindAllSubmatch(inflated, -1) {
			text.WriteString(unescapePDFString(string(tm[1])))
			text.WriteString(" ")
		}
		pages++
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("no extractable text found")
	}
	return strings.TrimSpace(text.String()), nil
}

func inflate(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(bytes.TrimSpace(compressed)))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n")
	return replacer.Replace(s)
}

// docxDocumentEntry is the archive member holding the document body.
const docxDocumentEntry = "word/document.xml"

type docxBody struct {
	Text []string `xml:"body>p>r>t"`
}

// extractDOCXText reads the OOXML package's main document part and
// concatenates its text runs.
func extractDOCXText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	for _, f := range reader.File {
		if f.Name != docxDocumentEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()

		var body docxBody
		if err := xml.NewDecoder(rc).Decode(&body); err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		return strings.Join(body.Text, " "), nil
	}
	return "", fmt.Errorf("document.xml not found in docx package")
}
