package media

import "testing"

func buildMinimalWAV(samples []int16) []byte {
	dataBytes := make([]byte, len(samples)*2)
	for i, s := range samples {
		dataBytes[2*i] = byte(uint16(s))
		dataBytes[2*i+1] = byte(uint16(s) >> 8)
	}

	var buf []byte
	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, put32(uint32(36+len(dataBytes)))...)
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, put32(16)...)
	buf = append(buf, 1, 0) // PCM
	buf = append(buf, 1, 0) // mono
	buf = append(buf, put32(16000)...)
	buf = append(buf, put32(32000)...)
	buf = append(buf, 2, 0)
	buf = append(buf, 16, 0)
	buf = append(buf, []byte("data")...)
	buf = append(buf, put32(uint32(len(dataBytes)))...)
	buf = append(buf, dataBytes...)
	return buf
}

func put32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestParseWAVToFloat32(t *testing.T) {
	wav := buildMinimalWAV([]int16{0, 16384, -32768, 32767})
	samples, err := parseWAVToFloat32(wav)
	if err != nil {
		t.Fatalf("parseWAVToFloat32: %v", err)
	}
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("sample 0 = %v, want 0", samples[0])
	}
	if samples[2] != -1 {
		t.Errorf("sample 2 (min int16) = %v, want -1", samples[2])
	}
}

func TestParseWAVToFloat32RejectsNonRIFF(t *testing.T) {
	if _, err := parseWAVToFloat32([]byte("not a wav file at all")); err == nil {
		t.Fatal("expected error for non-RIFF input")
	}
}
