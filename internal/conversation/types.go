package conversation

import leadsdomain "sdrsolar/internal/leads/domain"

// InboundMessage is one message arriving from the messaging gateway,
// already normalized by the webhook layer.
type InboundMessage struct {
	Phone            string
	DisplayName      string
	Text             string
	ContentType      leadsdomain.ContentType
	GatewayMessageID string
	MediaMessageID   string // set when ContentType is IMAGE/AUDIO/DOCUMENT
}
