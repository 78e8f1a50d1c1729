package media

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"sdrsolar/internal/adapters/storage"
	"sdrsolar/platform/apperr"
	"sdrsolar/platform/logger"
)

const (
	mediaRetryAttempts = 2
	mediaRetryBaseWait = 500 * time.Millisecond
	mediaBucket        = "lead-media"
	mediaFolder        = "inbound"
)

// Downloader fetches raw attachment bytes from the messaging gateway.
type Downloader interface {
	DownloadMedia(ctx context.Context, messageID string) ([]byte, string, error)
}

// Pipeline ingests one inbound attachment end to end: download with retry,
// detect its real kind, process it per-kind, and persist the original.
type Pipeline struct {
	gateway     Downloader
	storage     *storage.MinIOService
	transcriber *Transcriber
	log         *logger.Logger
}

// New constructs a media ingestion Pipeline.
func New(gateway Downloader, store *storage.MinIOService, transcriber *Transcriber, log *logger.Logger) *Pipeline {
	return &Pipeline{gateway: gateway, storage: store, transcriber: transcriber, log: log}
}

// Ingest downloads, classifies, and processes an inbound attachment. On
// unrecoverable errors it returns a Result carrying a polite Fallback
// message instead of failing the whole conversation turn: degrade
// gracefully, never abort the turn.
func (p *Pipeline) Ingest(ctx context.Context, messageID string) Result {
	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	data, claimedType, err := p.downloadWithRetry(ctx, messageID)
	if err != nil {
		p.log.Warn("media download failed after retries", "message_id", messageID, "error", err)
		return Result{Kind: KindUnknown, Fallback: "Não consegui abrir esse arquivo, pode descrever o que enviou?"}
	}

	kind := DetectKind(data)
	if kind == KindUnknown {
		p.log.Warn("media kind undetermined, claimed type ignored", "message_id", messageID, "claimed_type", claimedType)
		return Result{Kind: KindUnknown, Fallback: "Não reconheci o tipo desse arquivo, pode enviar em outro formato?"}
	}

	storageKey, err := p.storage.UploadFile(ctx, mediaBucket, mediaFolder, messageID, claimedType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		p.log.Warn("media upload to storage failed", "message_id", messageID, "error", err)
	}

	result := Result{Kind: kind, StorageKey: storageKey}

	switch kind {
	case KindImage:
		downscaled, err := DownscaleImage(data)
		if err != nil {
			p.log.Warn("image downscale failed, keeping original", "message_id", messageID, "error", err)
		} else if len(downscaled) != len(data) {
			if key, err := p.storage.UploadFile(ctx, mediaBucket, mediaFolder, messageID+"-scaled", "image/jpeg", bytes.NewReader(downscaled), int64(len(downscaled))); err == nil {
				result.StorageKey = key
			}
		}
	case KindAudio:
		if p.transcriber == nil {
			result.Fallback = "Recebi seu áudio, mas no momento só consigo responder mensagens de texto."
			break
		}
		transcript, err := p.transcriber.TranscribeVoiceNote(ctx, data)
		if err != nil {
			p.log.Warn("transcription failed", "message_id", messageID, "error", err)
			result.Fallback = "Não consegui entender o áudio, pode escrever sua mensagem?"
			break
		}
		result.Transcript = transcript
	case KindDocument:
		text, err := ExtractDocumentText(data)
		if err != nil {
			p.log.Warn("document text extraction failed", "message_id", messageID, "error", err)
			result.Fallback = "Recebi o documento, mas não consegui ler o conteúdo. Pode me contar o que ele diz?"
			break
		}
		result.ExtractedText = text
	}

	return result
}

func (p *Pipeline) downloadWithRetry(ctx context.Context, messageID string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt <= mediaRetryAttempts; attempt++ {
		if attempt > 0 {
			wait := mediaRetryBaseWait * time.Duration(1<<uint(attempt-1))
			jitter := time.Duration(rand.Int64N(int64(wait) / 2))
			select {
			case <-time.After(wait + jitter):
			case <-ctx.Done():
				return nil, "", apperr.Wrap(apperr.KindInternal, "media download canceled", ctx.Err())
			}
		}

		data, contentType, err := p.gateway.DownloadMedia(ctx, messageID)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("download media after %d attempts: %w", mediaRetryAttempts+1, lastErr)
}
