// Package humanize delivers outbound messages the way a person typing on
// a phone would: a typing indicator before each chunk, a short pause
// between chunks, and never more than one message in flight for a given
// lead at a time. It is the only package in the module that calls
// internal/gateway's send path.
package humanize

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"sdrsolar/internal/gateway"
	leadsdomain "sdrsolar/internal/leads/domain"
	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"
)

const (
	maxChunks           = 3
	minTypingDelay      = 1 * time.Second
	maxTypingDelay      = 5 * time.Second
	typingCharsPerSec   = 40
	minInterChunkPause  = 500 * time.Millisecond
	maxInterChunkPause  = 1500 * time.Millisecond
	sendRetryMaxAttempt = 3
)

// Sender paces and delivers a reply to a lead, splitting it into at most
// three chunks, each preceded by a typing indicator sized to how long
// that chunk would take to type, with a short randomized pause between
// chunks. The whole send is bounded by a configured ceiling and never
// runs concurrently for the same lead.
type Sender struct {
	gw            *gateway.Client
	chunkMaxChars int
	typingMaxMs   int
	delayCeiling  time.Duration
	log           *logger.Logger

	mu        sync.Mutex
	sendLocks map[string]*sync.Mutex
}

func New(gw *gateway.Client, cfg config.ConversationConfig, log *logger.Logger) *Sender {
	return &Sender{
		gw:            gw,
		chunkMaxChars: cfg.GetChunkMaxChars(),
		typingMaxMs:   cfg.GetTypingMaxMs(),
		delayCeiling:  cfg.GetSendDelayCeiling(),
		log:           log,
		sendLocks:     make(map[string]*sync.Mutex),
	}
}

// Send delivers text to lead as 1-3 chunks, each with its own typing
// indicator, never overlapping a concurrent send to the same lead.
func (s *Sender) Send(ctx context.Context, lead leadsdomain.Lead, text string) error {
	lock := s.leadLock(lead.Phone)
	lock.Lock()
	defer lock.Unlock()

	deadline := time.Now().Add(s.delayCeiling)
	chunks := splitChunks(text, s.chunkMaxChars, maxChunks)

	for i, chunk := range chunks {
		if time.Now().After(deadline) {
			s.log.Warn("humanized send exceeded delay ceiling, delivering remaining chunks immediately",
				"phone", lead.Phone, "remaining", len(chunks)-i)
		} else {
			typingFor := typingDuration(chunk, s.typingMaxMs)
			if err := s.gw.SetTyping(ctx, lead.Phone, true); err != nil {
				s.log.Warn("failed to set typing indicator", "phone", lead.Phone, "error", err)
			}
			select {
			case <-time.After(typingFor):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := s.sendWithRetry(ctx, lead.Phone, chunk); err != nil {
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}

		if i < len(chunks)-1 {
			pause := minInterChunkPause + time.Duration(rand.Int64N(int64(maxInterChunkPause-minInterChunkPause)))
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// SendFollowUp implements followup.Sender and calendar.Sender: a
// scheduled nudge or reminder goes through the exact same paced,
// per-lead-serialized path as a live reply, so a lead never receives two
// messages at once regardless of which subsystem triggered them.
func (s *Sender) SendFollowUp(ctx context.Context, lead leadsdomain.Lead, text string) error {
	return s.Send(ctx, lead, text)
}

func (s *Sender) sendWithRetry(ctx context.Context, phone, text string) error {
	var lastErr error
	for attempt := 0; attempt < sendRetryMaxAttempt; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := s.gw.SendText(ctx, phone, text)
		if err == nil {
			return nil
		}
		lastErr = err
		s.log.Warn("gateway send failed, retrying", "phone", phone, "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("gateway send exhausted retries: %w", lastErr)
}

func (s *Sender) leadLock(phone string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sendLocks[phone]
	if !ok {
		lock = &sync.Mutex{}
		s.sendLocks[phone] = lock
	}
	return lock
}

// typingDuration sizes the composing indicator to the chunk's length,
// clamped to [1s, 5s] at 40 characters per second.
func typingDuration(chunk string, typingMaxMs int) time.Duration {
	perChar := time.Second / typingCharsPerSec
	d := time.Duration(len([]rune(chunk))) * perChar
	ceiling := maxTypingDelay
	if typingMaxMs > 0 && time.Duration(typingMaxMs)*time.Millisecond < ceiling {
		ceiling = time.Duration(typingMaxMs) * time.Millisecond
	}
	if d < minTypingDelay {
		return minTypingDelay
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

// splitChunks breaks text into at most maxChunks pieces, preferring to
// break on sentence or paragraph boundaries so a chunk never cuts a
// sentence mid-word. If the text is already short it returns a single
// chunk.
func splitChunks(text string, maxChars, maxChunks int) []string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 && len(chunks) < maxChunks-1 {
		limit := maxChars
		if limit > len(runes) {
			limit = len(runes)
		}
		cut := lastBreak(runes[:limit])
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = trimLeadingSpace(runes[cut:])
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastBreak(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		switch r[i] {
		case '\n', '.', '!', '?':
			return i + 1
		}
	}
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i + 1
		}
	}
	return 0
}

func trimLeadingSpace(r []rune) []rune {
	i := 0
	for i < len(r) && (r[i] == ' ' || r[i] == '\n') {
		i++
	}
	return r[i:]
}
