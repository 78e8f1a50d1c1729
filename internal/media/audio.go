package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go"
)

// Transcriber turns a voice note into text via whisper.cpp. WhatsApp voice
// notes arrive OPUS-encoded inside an Ogg container; whisper.cpp expects
// mono 16kHz PCM, so TranscribeVoiceNote shells out to ffmpeg for the
// decode step first (no pack dependency decodes Opus — see DESIGN.md).
type Transcriber struct {
	model whisper.Model
}

// NewTranscriber loads a whisper.cpp model from disk.
func NewTranscriber(modelPath string) (*Transcriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	return &Transcriber{model: model}, nil
}

// Close releases the underlying whisper.cpp model.
func (t *Transcriber) Close() error {
	return t.model.Close()
}

// TranscribeVoiceNote decodes an OPUS/Ogg voice note to 16kHz mono PCM and
// runs it through whisper.cpp, returning the concatenated transcript.
func (t *Transcriber) TranscribeVoiceNote(ctx context.Context, oggData []byte) (string, error) {
	samples, err := decodeToPCM16kMono(ctx, oggData)
	if err != nil {
		return "", fmt.Errorf("decode voice note: %w", err)
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}

	if err := wctx.Process(samples, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	transcript := ""
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		if transcript != "" {
			transcript += " "
		}
		transcript += segment.Text
	}
	return transcript, nil
}

// decodeToPCM16kMono pipes the Ogg/Opus payload through ffmpeg and parses
// the resulting WAV container into float32 samples.
func decodeToPCM16kMono(ctx context.Context, oggData []byte) ([]float32, error) {
	inFile, err := os.CreateTemp("", "voicenote-*.ogg")
	if err != nil {
		return nil, err
	}
	defer os.Remove(inFile.Name())
	if _, err := inFile.Write(oggData); err != nil {
		inFile.Close()
		return nil, err
	}
	inFile.Close()

	outFile, err := os.CreateTemp("", "voicenote-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(outFile.Name())
	outFile.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", inFile.Name(),
		"-ar", "16000", "-ac", "1", "-f", "wav", outFile.Name())
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg transcode: %w", err)
	}

	wavData, err := os.ReadFile(outFile.Name())
	if err != nil {
		return nil, err
	}
	return parseWAVToFloat32(wavData)
}

// parseWAVToFloat32 reads a canonical PCM WAV file (16-bit, any channel
// count already downmixed by ffmpeg to mono) into normalized float32
// samples. No audio-decoding library sits in the pack this module was
// grounded on, so the RIFF/WAVE chunk walk is hand-rolled.
func parseWAVToFloat32(data []byte) ([]float32, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	offset := 12
	var dataChunk []byte
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(le32(data[offset+4 : offset+8]))
		bodyStart := offset + 8
		if bodyStart+chunkSize > len(data) {
			break
		}
		if chunkID == "data" {
			dataChunk = data[bodyStart : bodyStart+chunkSize]
			break
		}
		offset = bodyStart + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}
	if dataChunk == nil {
		return nil, fmt.Errorf("no data chunk found")
	}

	samples := make([]float32, len(dataChunk)/2)
	for i := range samples {
		raw := int16(uint16(dataChunk[2*i]) | uint16(dataChunk[2*i+1])<<8)
		samples[i] = float32(raw) / 32768.0
	}
	return samples, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
