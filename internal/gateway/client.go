// Package gateway adapts the GoWA-compatible messaging bridge into the
// send/typing/reaction/media surface the conversation orchestrator and
// media pipeline depend on. It is the one place in the module that
// speaks the gateway's wire format.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"
	"sdrsolar/platform/phone"
)

type Client struct {
	baseURL         string
	apiKey          string
	defaultDeviceID string
	http            *http.Client
	log             *logger.Logger
}

type gowaSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type gowaTypingRequest struct {
	Phone  string `json:"phone"`
	Action string `json:"action"`
}

type gowaReactionRequest struct {
	Phone     string `json:"phone"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// gowaMediaResponse is the JSON envelope GoWA returns for a message's
// media download, carrying the bytes base64-encoded alongside the MIME
// type reported by the originating device.
type gowaMediaResponse struct {
	Results struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	} `json:"results"`
}

var ErrNoDevice = errors.New("no messaging device configured")

func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppBaseURL() == "" {
		return nil
	}

	return &Client{
		baseURL:         strings.TrimRight(cfg.GetWhatsAppBaseURL(), "/"),
		apiKey:          cfg.GetWhatsAppAPIKey(),
		defaultDeviceID: cfg.GetWhatsAppDefaultDeviceID(),
		http:            &http.Client{Timeout: 10 * time.Second},
		log:             log,
	}
}

// SendText sends a single text chunk to phoneNumber on the default
// device, retrying once after a reconnect if the device had dropped its
// socket. The Humanized Sender is responsible for chunking and pacing;
// this method only delivers one chunk.
func (c *Client) SendText(ctx context.Context, phoneNumber, message string) error {
	if c == nil {
		return nil
	}
	if c.defaultDeviceID == "" {
		return ErrNoDevice
	}

	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")
	payload := gowaSendRequest{Phone: normalized, Message: message}

	err := c.doSendText(ctx, payload)
	if err != nil && isConnectionError(err) {
		c.log.Warn("gateway connection lost, attempting reconnect", "deviceId", c.defaultDeviceID)
		if reconErr := c.ReconnectDevice(ctx, c.defaultDeviceID); reconErr == nil {
			time.Sleep(2 * time.Second)
			return c.doSendText(ctx, payload)
		}
	}
	if err == nil {
		c.log.Info("gateway sent text", "phone", normalized)
	}
	return err
}

func (c *Client) doSendText(ctx context.Context, payload gowaSendRequest) error {
	return c.postJSON(ctx, "/send/message", payload, nil)
}

// SetTyping toggles the composing indicator for phoneNumber. GoWA treats
// this as fire-and-forget; a failure here never blocks message delivery.
func (c *Client) SetTyping(ctx context.Context, phoneNumber string, on bool) error {
	if c == nil {
		return nil
	}
	action := "stop"
	if on {
		action = "start"
	}
	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")
	return c.postJSON(ctx, "/send/chat-presence", gowaTypingRequest{Phone: normalized, Action: action}, nil)
}

// SendReaction reacts to messageID with emoji. An empty emoji removes a
// previously sent reaction, matching GoWA's own convention.
func (c *Client) SendReaction(ctx context.Context, phoneNumber, messageID, emoji string) error {
	if c == nil {
		return nil
	}
	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")
	return c.postJSON(ctx, "/send/reaction", gowaReactionRequest{
		Phone:     normalized,
		MessageID: messageID,
		Emoji:     emoji,
	}, nil)
}

// DownloadMedia fetches the raw bytes and MIME type for an inbound
// message's attachment. It satisfies internal/media's Downloader
// interface.
func (c *Client) DownloadMedia(ctx context.Context, messageID string) ([]byte, string, error) {
	if c == nil {
		return nil, "", ErrNoDevice
	}

	url := fmt.Sprintf("%s/messages/%s/media", c.baseURL, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	c.addHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("download media returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var raw gowaMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, "", fmt.Errorf("decode media response: %w", err)
	}
	decoded, err := decodeMediaPayload(raw.Results.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decode media payload: %w", err)
	}
	return decoded, raw.Results.MimeType, nil
}

func (c *Client) ReconnectDevice(ctx context.Context, deviceID string) error {
	if c == nil {
		return nil
	}
	url := fmt.Sprintf("%s/devices/%s/reconnect", c.baseURL, deviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req, deviceID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reconnect failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	c.addHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request, deviceID string) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}
	if deviceID != "" {
		req.Header.Set("X-Device-Id", deviceID)
	}
}

func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "client is not connected") || strings.Contains(msg, "context deadline exceeded")
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}

// decodeMediaPayload accepts either standard or raw (unpadded) base64,
// since GoWA builds have been observed emitting both.
func decodeMediaPayload(data string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(data)
}
