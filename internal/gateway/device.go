package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sdrsolar/platform/apperr"

	"github.com/skip2/go-qrcode"
)

// gowaLoginResponse is the JSON envelope GoWA returns for /devices/:id/login.
// Results.QRLink is usually a URL or base64 image; some GoWA builds instead
// return the raw multi-device linking string in Results.QRString, which the
// caller has to render into a QR image itself.
type gowaLoginResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Results struct {
		QRLink     string `json:"qr_link"`
		QRDuration int    `json:"qr_duration"`
		QRString   string `json:"qr_string"`
	} `json:"results"`
}

const qrImagePixels = 320

type gowaStatusResponse struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Results struct {
		DeviceID    string `json:"device_id"`
		IsConnected bool   `json:"is_connected"`
		IsLoggedIn  bool   `json:"is_logged_in"`
	} `json:"results"`
}

// DeviceStatus is the normalised device status exposed to callers.
type DeviceStatus struct {
	DeviceID    string
	IsConnected bool
	IsLoggedIn  bool
}

type deviceInput struct {
	DeviceID string `json:"device_id"`
}

func (c *Client) CreateDevice(ctx context.Context, deviceID string) error {
	if c == nil {
		return nil
	}
	err := c.postJSON(ctx, "/devices", deviceInput{DeviceID: deviceID}, nil)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), fmt.Sprint(http.StatusConflict)) {
		return nil
	}
	return err
}

// GetLoginQR walks GoWA's three historical QR endpoint shapes (per-device
// v8, legacy with device_id query param, plain legacy) and returns the
// first one that answers, falling back to the next shape only when the
// provider signals the endpoint itself is unsupported.
func (c *Client) GetLoginQR(ctx context.Context, deviceID string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("gateway client not initialized")
	}

	qrCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	primaryURL := fmt.Sprintf("%s/devices/%s/login?output=image", c.baseURL, deviceID)
	qrBytes, fallback, err := c.fetchLoginQR(qrCtx, primaryURL, deviceID)
	if err == nil {
		return qrBytes, nil
	}
	if !fallback {
		return nil, err
	}

	fallbackURL := fmt.Sprintf("%s/app/login?output=image&device_id=%s", c.baseURL, deviceID)
	qrBytes, fallback, err = c.fetchLoginQR(qrCtx, fallbackURL, "")
	if err == nil {
		return qrBytes, nil
	}
	if !fallback {
		return nil, err
	}

	finalURL := fmt.Sprintf("%s/app/login?output=image", c.baseURL)
	qrBytes, _, err = c.fetchLoginQR(qrCtx, finalURL, "")
	if err == nil {
		return qrBytes, nil
	}
	return nil, err
}

func (c *Client) fetchLoginQR(ctx context.Context, qrURL string, deviceID string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, qrURL, nil)
	if err != nil {
		return nil, false, err
	}
	c.addHeaders(req, deviceID)
	req.Header.Set("Accept", "image/png, image/*, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		body := strings.TrimSpace(string(data))
		msgLower := strings.ToLower(body)
		if resp.StatusCode >= http.StatusInternalServerError && strings.Contains(msgLower, "not implemented") {
			return nil, true, fmt.Errorf("failed to get QR, status %d: %s", resp.StatusCode, body)
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, true, fmt.Errorf("QR endpoint not found: %d: %s", resp.StatusCode, body)
		}
		return nil, false, fmt.Errorf("failed to get QR, status %d: %s", resp.StatusCode, body)
	}

	qrBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") || (len(qrBytes) > 0 && qrBytes[0] == '{') {
		if img, err := c.extractQRFromJSON(ctx, qrBytes); err == nil && img != nil {
			return img, false, nil
		}
		return nil, true, fmt.Errorf("QR endpoint returned JSON without image data")
	}
	return qrBytes, false, nil
}

func (c *Client) extractQRFromJSON(ctx context.Context, data []byte) ([]byte, error) {
	var resp gowaLoginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	qr := resp.Results.QRLink
	if qr == "" {
		if resp.Results.QRString == "" {
			return nil, fmt.Errorf("no qr_link or qr_string in response")
		}
		return qrcode.Encode(resp.Results.QRString, qrcode.Medium, qrImagePixels)
	}

	if strings.HasPrefix(qr, "http://") || strings.HasPrefix(qr, "https://") {
		resolved := c.resolveGoWAURL(qr)
		c.log.Info("fetching QR image from URL", "url", resolved)
		return c.fetchImageFromURL(ctx, resolved)
	}

	if idx := strings.Index(qr, ","); idx >= 0 {
		qr = qr[idx+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(qr)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(qr)
		if err != nil {
			return nil, fmt.Errorf("failed to decode QR data: %w", err)
		}
	}
	return decoded, nil
}

// resolveGoWAURL rewrites a URL returned by GoWA so it uses the
// configured base URL's scheme and host (GoWA often answers with a
// loopback address internal to its own container).
func (c *Client) resolveGoWAURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	baseParsed, err := url.Parse(c.baseURL)
	if err != nil {
		return rawURL
	}
	parsed.Scheme = baseParsed.Scheme
	parsed.Host = baseParsed.Host
	return parsed.String()
}

func (c *Client) fetchImageFromURL(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/png, image/*")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch QR image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("QR image fetch returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) DeleteDevice(ctx context.Context, deviceID string) error {
	if c == nil {
		return nil
	}
	url := fmt.Sprintf("%s/devices/%s", c.baseURL, deviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req, deviceID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete device, status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

func (c *Client) GetDeviceStatus(ctx context.Context, deviceID string) (*DeviceStatus, error) {
	if c == nil {
		return nil, fmt.Errorf("gateway client not initialized")
	}
	url := fmt.Sprintf("%s/devices/%s/status", c.baseURL, deviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.addHeaders(req, deviceID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFound("device not found in provider")
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		body := strings.TrimSpace(string(data))
		if resp.StatusCode >= http.StatusInternalServerError {
			msgLower := strings.ToLower(body)
			if strings.Contains(msgLower, "device") && strings.Contains(msgLower, "not found") {
				return nil, apperr.NotFound("device not found in provider")
			}
		}
		return nil, fmt.Errorf("provider error: %d: %s", resp.StatusCode, body)
	}

	var raw gowaStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return &DeviceStatus{
		DeviceID:    raw.Results.DeviceID,
		IsConnected: raw.Results.IsConnected,
		IsLoggedIn:  raw.Results.IsLoggedIn,
	}, nil
}
