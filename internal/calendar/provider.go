package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sdrsolar/platform/apperr"
	"sdrsolar/platform/config"
)

// Slot is an open meeting window a lead can pick from.
type Slot struct {
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

// RemoteEvent is the provider's view of a calendar event, used both to
// create events and to reconcile local state during sync.
type RemoteEvent struct {
	ExternalEventID string    `json:"id"`
	StartAt         time.Time `json:"startAt"`
	EndAt           time.Time `json:"endAt"`
	AttendeeEmails  []string  `json:"attendees"`
	Canceled        bool      `json:"canceled"`
}

// Provider talks to the external calendar (the same REST-client shape as
// the messaging gateway: base URL + API key + http.Client with timeout,
// JSON marshal/unmarshal, status-code-to-error mapping).
type Provider struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewProvider(cfg config.CalendarConfig) *Provider {
	if cfg.GetCalendarProviderURL() == "" {
		return nil
	}
	return &Provider{
		baseURL: strings.TrimRight(cfg.GetCalendarProviderURL(), "/"),
		apiKey:  cfg.GetCalendarAPIKey(),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Provider) FindSlots(ctx context.Context, from time.Time, duration time.Duration, count int) ([]Slot, error) {
	if p == nil {
		return nil, apperr.New(apperr.KindInternal, "calendar provider not configured")
	}
	url := fmt.Sprintf("%s/slots?from=%s&durationMinutes=%d&count=%d",
		p.baseURL, from.UTC().Format(time.RFC3339), int(duration.Minutes()), count)

	var slots []Slot
	if err := p.doJSON(ctx, http.MethodGet, url, nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (p *Provider) CreateEvent(ctx context.Context, slot Slot, attendeeEmails []string) (RemoteEvent, error) {
	if p == nil {
		return RemoteEvent{}, apperr.New(apperr.KindInternal, "calendar provider not configured")
	}
	body := map[string]any{
		"startAt":   slot.StartAt,
		"endAt":     slot.EndAt,
		"attendees": attendeeEmails,
	}
	var event RemoteEvent
	if err := p.doJSON(ctx, http.MethodPost, p.baseURL+"/events", body, &event); err != nil {
		return RemoteEvent{}, err
	}
	return event, nil
}

func (p *Provider) CancelEvent(ctx context.Context, externalEventID string) error {
	if p == nil {
		return apperr.New(apperr.KindInternal, "calendar provider not configured")
	}
	url := fmt.Sprintf("%s/events/%s", p.baseURL, externalEventID)
	return p.doJSON(ctx, http.MethodDelete, url, nil, nil)
}

func (p *Provider) GetEvent(ctx context.Context, externalEventID string) (RemoteEvent, error) {
	if p == nil {
		return RemoteEvent{}, apperr.New(apperr.KindInternal, "calendar provider not configured")
	}
	url := fmt.Sprintf("%s/events/%s", p.baseURL, externalEventID)
	var event RemoteEvent
	if err := p.doJSON(ctx, http.MethodGet, url, nil, &event); err != nil {
		return RemoteEvent{}, err
	}
	return event, nil
}

// ListUpcoming returns every non-canceled remote event starting after now,
// used by the sync loop to reconcile local CalendarEvent rows.
func (p *Provider) ListUpcoming(ctx context.Context, from time.Time) ([]RemoteEvent, error) {
	if p == nil {
		return nil, apperr.New(apperr.KindInternal, "calendar provider not configured")
	}
	url := fmt.Sprintf("%s/events?from=%s", p.baseURL, from.UTC().Format(time.RFC3339))
	var events []RemoteEvent
	if err := p.doJSON(ctx, http.MethodGet, url, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (p *Provider) doJSON(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal calendar request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("calendar provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperr.NotFound("calendar event not found in provider")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("calendar provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
