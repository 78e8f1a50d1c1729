package webhook

import leadsdomain "sdrsolar/internal/leads/domain"

// gowaEvent mirrors the event names GoWA emits on its webhook. Only
// messages.upsert carries a new inbound message; the others are
// acknowledged with 200 and otherwise ignored.
type gowaEvent string

const (
	eventMessagesUpsert  gowaEvent = "messages.upsert"
	eventMessagesUpdate  gowaEvent = "messages.update"
	eventConnectionState gowaEvent = "connection.update"
)

type gowaImageMessage struct {
	Caption string `json:"caption"`
}

type gowaDocumentMessage struct {
	Caption string `json:"caption"`
}

type gowaAudioMessage struct {
	Seconds int `json:"seconds"`
}

// gowaWebhookPayload is the JSON body GoWA posts for every event type.
// Only the fields messages.upsert needs are modeled; everything else is
// carried through untouched by the JSON decoder. Pointer fields
// distinguish "key absent" from "key present with zero value".
type gowaWebhookPayload struct {
	Event gowaEvent `json:"event" validate:"required"`
	Data  struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			ID        string `json:"id"`
			FromMe    bool   `json:"fromMe"`
		} `json:"key"`
		PushName string `json:"pushName"`
		Message  struct {
			Conversation        *string              `json:"conversation"`
			ExtendedTextMessage *struct{ Text string `json:"text"` } `json:"extendedTextMessage"`
			ImageMessage        *gowaImageMessage    `json:"imageMessage"`
			DocumentMessage     *gowaDocumentMessage `json:"documentMessage"`
			AudioMessage        *gowaAudioMessage    `json:"audioMessage"`
		} `json:"message"`
	} `json:"data"`
}

// parsedInbound is what the handler hands to the orchestrator once a
// messages.upsert payload has cleared validation and dedup.
type parsedInbound struct {
	phone            string
	displayName      string
	text             string
	contentType      leadsdomain.ContentType
	gatewayMessageID string
	mediaMessageID   string
}

// extractInbound reduces a raw webhook payload to the fields the
// orchestrator needs, or ok=false if it isn't an actionable inbound
// message (wrong event, echo of our own send, or missing identifiers).
func extractInbound(p gowaWebhookPayload) (parsedInbound, bool) {
	if p.Event != eventMessagesUpsert {
		return parsedInbound{}, false
	}
	if p.Data.Key.FromMe {
		return parsedInbound{}, false
	}
	if p.Data.Key.RemoteJid == "" || p.Data.Key.ID == "" {
		return parsedInbound{}, false
	}

	out := parsedInbound{
		phone:            p.Data.Key.RemoteJid,
		displayName:      p.Data.PushName,
		gatewayMessageID: p.Data.Key.ID,
	}

	msg := p.Data.Message
	switch {
	case msg.Conversation != nil:
		out.contentType = leadsdomain.ContentText
		out.text = *msg.Conversation
	case msg.ExtendedTextMessage != nil:
		out.contentType = leadsdomain.ContentText
		out.text = msg.ExtendedTextMessage.Text
	case msg.ImageMessage != nil:
		out.contentType = leadsdomain.ContentImage
		out.text = msg.ImageMessage.Caption
		out.mediaMessageID = p.Data.Key.ID
	case msg.DocumentMessage != nil:
		out.contentType = leadsdomain.ContentDocument
		out.text = msg.DocumentMessage.Caption
		out.mediaMessageID = p.Data.Key.ID
	case msg.AudioMessage != nil:
		out.contentType = leadsdomain.ContentAudio
		out.mediaMessageID = p.Data.Key.ID
	default:
		return parsedInbound{}, false
	}

	return out, true
}
