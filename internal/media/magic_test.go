package media

import "testing"

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, KindImage},
		{"png", append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, 0x00), KindImage},
		{"pdf", []byte("%PDF-1.7\n..."), KindDocument},
		{"ogg opus", []byte("OggS\x00\x02..."), KindAudio},
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), KindAudio},
		{"plain zip", append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("readme.txt")...), KindUnknown},
		{"docx disguised as zip", append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("[Content_Types].xml")...), KindDocument},
		{"garbage", []byte("not a real file"), KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectKind(tc.data); got != tc.want {
				t.Errorf("DetectKind(%q) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestDOCXPreferredOverRawZipOnMagicByteCollision(t *testing.T) {
	docxLike := append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("word/[Content_Types].xml")...)
	if got := DetectKind(docxLike); got != KindDocument {
		t.Errorf("DOCX-shaped ZIP should classify as document, got %v", got)
	}
}
