package webhook

import (
	"encoding/json"
	"testing"

	leadsdomain "sdrsolar/internal/leads/domain"
)

func decodePayload(t *testing.T, raw string) gowaWebhookPayload {
	t.Helper()
	var p gowaWebhookPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return p
}

func TestExtractInboundTextMessage(t *testing.T) {
	p := decodePayload(t, `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511999999999", "id": "MSG1", "fromMe": false},
			"pushName": "Joana",
			"message": {"conversation": "Quero saber sobre energia solar"}
		}
	}`)

	got, ok := extractInbound(p)
	if !ok {
		t.Fatal("expected an actionable inbound message")
	}
	if got.contentType != leadsdomain.ContentText || got.text != "Quero saber sobre energia solar" {
		t.Errorf("unexpected parse: %+v", got)
	}
	if got.phone != "5511999999999" || got.gatewayMessageID != "MSG1" {
		t.Errorf("unexpected identifiers: %+v", got)
	}
}

func TestExtractInboundExtendedTextMessage(t *testing.T) {
	p := decodePayload(t, `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511999999999", "id": "MSG2", "fromMe": false},
			"message": {"extendedTextMessage": {"text": "respondendo uma citação"}}
		}
	}`)

	got, ok := extractInbound(p)
	if !ok || got.text != "respondendo uma citação" || got.contentType != leadsdomain.ContentText {
		t.Errorf("unexpected parse: %+v, ok=%v", got, ok)
	}
}

func TestExtractInboundImageMessage(t *testing.T) {
	p := decodePayload(t, `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511999999999", "id": "MSG3", "fromMe": false},
			"message": {"imageMessage": {"caption": "minha conta de luz"}}
		}
	}`)

	got, ok := extractInbound(p)
	if !ok {
		t.Fatal("expected an actionable inbound message")
	}
	if got.contentType != leadsdomain.ContentImage || got.mediaMessageID != "MSG3" {
		t.Errorf("unexpected parse: %+v", got)
	}
}

func TestExtractInboundIgnoresSelfSentEcho(t *testing.T) {
	p := decodePayload(t, `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511999999999", "id": "MSG4", "fromMe": true},
			"message": {"conversation": "oi"}
		}
	}`)

	if _, ok := extractInbound(p); ok {
		t.Fatal("self-sent echo should not be actionable")
	}
}

func TestExtractInboundIgnoresNonUpsertEvents(t *testing.T) {
	p := decodePayload(t, `{"event": "connection.update", "data": {"key": {"remoteJid": "x", "id": "y"}}}`)
	if _, ok := extractInbound(p); ok {
		t.Fatal("connection.update should not be actionable")
	}
}

func TestExtractInboundRejectsMissingIdentifiers(t *testing.T) {
	p := decodePayload(t, `{
		"event": "messages.upsert",
		"data": {"key": {"remoteJid": "", "id": "MSG5"}, "message": {"conversation": "oi"}}
	}`)
	if _, ok := extractInbound(p); ok {
		t.Fatal("missing remoteJid should not be actionable")
	}
}
