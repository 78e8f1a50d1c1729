package media

import (
	"archive/zip"
	"bytes"
	"compress/zlib"
	"testing"
)

func buildMinimalDOCX(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	ct, _ := w.Create("[Content_Types].xml")
	ct.Write([]byte(`<?xml version="1.0"?><Types></Types>`))

	doc, _ := w.Create(docxDocumentEntry)
	doc.Write([]byte(`<?xml version="1.0"?>
		<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
			<w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body>
		</w:document>`))

	w.Close()
	return buf.Bytes()
}

func TestExtractDOCXText(t *testing.T) {
	docx := buildMinimalDOCX(t, "Quero saber sobre energia solar")
	got, err := ExtractDocumentText(docx)
	if err != nil {
		t.Fatalf("ExtractDocumentText: %v", err)
	}
	if got != "Quero saber sobre energia solar" {
		t.Errorf("got %q", got)
	}
}

func buildMinimalPDFStream(t *testing.T, content string) []byte {
	t.Helper()
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write([]byte(`BT (` + content + `) Tj ET`))
	zw.Close()

	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.4\n")
	pdf.WriteString("stream\n")
	pdf.Write(compressed.Bytes())
	pdf.WriteString("\nendstream\n")
	return pdf.Bytes()
}

func TestExtractPDFText(t *testing.T) {
	pdf := buildMinimalPDFStream(t, "Pago R\\$ 850")
	got, err := ExtractDocumentText(pdf)
	if err != nil {
		t.Fatalf("ExtractDocumentText: %v", err)
	}
	if got == "" {
		t.Fatal("expected non-empty extracted text")
	}
}
