// Package media ingests inbound WhatsApp attachments: detecting their real
// type from content rather than a claimed MIME type, downscaling oversized
// images, transcoding and transcribing voice notes, and extracting text
// from documents.
package media

import "time"

// Kind is the detected media category, independent of the gateway's
// claimed content type.
type Kind string

const (
	KindImage    Kind = "IMAGE"
	KindAudio    Kind = "AUDIO"
	KindDocument Kind = "DOCUMENT"
	KindUnknown  Kind = "UNKNOWN"
)

// ingestTimeout bounds a single media fetch-and-process pass.
const ingestTimeout = 30 * time.Second

// maxDocumentPages caps how many pages of a document get text-extracted.
const maxDocumentPages = 20

// imageDownscaleThresholdBytes triggers a downscale pass above this size.
const imageDownscaleThresholdBytes = 1 << 20 // 1MB

// Result is the outcome of ingesting one inbound attachment.
type Result struct {
	Kind        Kind
	StorageKey  string
	ExtractedText string
	Transcript  string
	Fallback    string
}
