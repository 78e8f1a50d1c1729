package humanize

import (
	"strings"
	"testing"
	"time"
)

func TestSplitChunksShortTextIsOneChunk(t *testing.T) {
	chunks := splitChunks("Hi there!", 320, maxChunks)
	if len(chunks) != 1 || chunks[0] != "Hi there!" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestSplitChunksBreaksOnSentenceBoundary(t *testing.T) {
	text := "This is the first sentence. This is the second sentence. This is the third."
	chunks := splitChunks(text, 30, maxChunks)
	if len(chunks) == 0 || len(chunks) > maxChunks {
		t.Fatalf("expected between 1 and %d chunks, got %d", maxChunks, len(chunks))
	}
	rejoined := strings.Join(chunks, "")
	if len(rejoined) == 0 {
		t.Fatal("expected non-empty rejoined text")
	}
	for i, c := range chunks {
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk %d %q does not end on a sentence boundary", i, c)
		}
	}
}

func TestSplitChunksNeverExceedsMax(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := splitChunks(text, 10, maxChunks)
	if len(chunks) > maxChunks {
		t.Fatalf("expected at most %d chunks, got %d", maxChunks, len(chunks))
	}
}

func TestTypingDurationClampsToMinimum(t *testing.T) {
	d := typingDuration("hi", 4000)
	if d != minTypingDelay {
		t.Errorf("expected minimum typing delay for a short chunk, got %v", d)
	}
}

func TestTypingDurationClampsToConfiguredCeiling(t *testing.T) {
	longChunk := strings.Repeat("a", 1000)
	d := typingDuration(longChunk, 2000)
	if d != 2*time.Second {
		t.Errorf("expected typing delay clamped to 2s ceiling, got %v", d)
	}
}

func TestTypingDurationScalesWithLength(t *testing.T) {
	chunk := strings.Repeat("a", 80)
	d := typingDuration(chunk, 4000)
	if d != 2*time.Second {
		t.Errorf("expected 2s for an 80-char chunk at 40 chars/sec, got %v", d)
	}
}
