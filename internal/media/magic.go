package media

import "bytes"

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	pdfMagic  = []byte("%PDF-")
	zipMagic  = []byte{0x50, 0x4B, 0x03, 0x04}
	oggMagic  = []byte("OggS")
	wavMagic  = []byte("RIFF")
)

// docxContentTypesEntry is the ZIP central-directory entry name present in
// every Office Open XML package, used to disambiguate a DOCX/XLSX/PPTX
// container from a plain ZIP archive when both share the same 4-byte
// magic number.
const docxContentTypesEntry = "[Content_Types].xml"

// DetectKind inspects the leading bytes of a payload to classify it,
// trusting content over any gateway-supplied MIME type — a mislabeled
// attachment must not be processed as its claimed type.
func DetectKind(data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, jpegMagic), bytes.HasPrefix(data, pngMagic):
		return KindImage
	case bytes.HasPrefix(data, oggMagic), bytes.HasPrefix(data, wavMagic):
		return KindAudio
	case bytes.HasPrefix(data, pdfMagic):
		return KindDocument
	case bytes.HasPrefix(data, zipMagic):
		// DOCX/XLSX/PPTX share the ZIP magic number with a raw archive;
		// only the presence of the OOXML manifest disambiguates them.
		// On collision, prefer treating it as a document: DOCX over raw ZIP.
		if looksLikeOOXML(data) {
			return KindDocument
		}
		return KindUnknown
	default:
		return KindUnknown
	}
}

func looksLikeOOXML(data []byte) bool {
	return bytes.Contains(data, []byte(docxContentTypesEntry))
}
