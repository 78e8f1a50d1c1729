package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"sdrsolar/internal/events"
	"sdrsolar/internal/leads/domain"
	"sdrsolar/internal/metrics"
	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"

	"github.com/sony/gobreaker"
)

const (
	crmTimeout        = 10 * time.Second
	crmRetryMax       = 3
	crmRetryBase      = 200 * time.Millisecond
	crmBreakerTrips   = 5
	crmBreakerCoolOff = 30 * time.Second
)

// Client is the best-effort CRM adapter. Every method swallows its error
// into a log line after exhausting retries and an open breaker — callers
// never see a CRM failure as a reason to stop the conversation. CRM state
// is advisory; local state stays authoritative.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Registry
}

func NewClient(cfg config.CRMConfig, bus events.Bus, reg *metrics.Registry, log *logger.Logger) *Client {
	if !cfg.IsCRMEnabled() {
		return nil
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "crm",
		Timeout:  crmBreakerCoolOff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= crmBreakerTrips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("crm circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.GetCRMBaseURL(), "/"),
		apiKey:  cfg.GetCRMAPIKey(),
		http:    &http.Client{Timeout: crmTimeout},
		breaker: breaker,
		bus:     bus,
		log:     log,
		metrics: reg,
	}
}

// SyncLead upserts the lead's current snapshot (stage, contact info,
// score) into the CRM.
func (c *Client) SyncLead(ctx context.Context, lead domain.Lead) {
	if c == nil {
		return
	}
	body := map[string]any{
		"externalId": lead.CRMExternalID,
		"phone":      lead.Phone,
		"name":       lead.DisplayName,
		"email":      lead.Email,
		"stage":      crmStage(lead.Stage),
		"score":      lead.QualificationScore,
	}
	c.bestEffort(ctx, lead.ID, "sync_lead", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, c.baseURL+"/leads", body, nil)
	})
}

// AdvanceStage pushes a stage change using the single stage-mapping
// source of truth.
func (c *Client) AdvanceStage(ctx context.Context, lead domain.Lead, stage domain.QualificationStage) {
	if c == nil {
		return
	}
	body := map[string]any{"stage": crmStage(stage)}
	url := fmt.Sprintf("%s/leads/%s/stage", c.baseURL, lead.CRMExternalID)
	c.bestEffort(ctx, lead.ID, "advance_stage", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPatch, url, body, nil)
	})
}

func (c *Client) AddNote(ctx context.Context, lead domain.Lead, text string) {
	if c == nil {
		return
	}
	body := map[string]any{"text": text}
	url := fmt.Sprintf("%s/leads/%s/notes", c.baseURL, lead.CRMExternalID)
	c.bestEffort(ctx, lead.ID, "add_note", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, url, body, nil)
	})
}

func (c *Client) CreateTask(ctx context.Context, lead domain.Lead, task Task) {
	if c == nil {
		return
	}
	url := fmt.Sprintf("%s/leads/%s/tasks", c.baseURL, lead.CRMExternalID)
	c.bestEffort(ctx, lead.ID, "create_task", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, url, task, nil)
	})
}

// bestEffort runs op through the circuit breaker with retry-with-jitter
// on transient failures, logging and swallowing any final error.
func (c *Client) bestEffort(ctx context.Context, leadID, op string, fn func(ctx context.Context) error) {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.withRetry(ctx, fn)
	})
	if err != nil {
		c.log.Warn("crm call failed, continuing without CRM sync", "op", op, "error", err)
		if c.metrics != nil {
			c.metrics.CRMSyncFailures.Inc()
		}
		if c.bus != nil {
			c.bus.Publish(ctx, events.CRMSyncFailed{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    leadID,
				Reason:    op + ": " + err.Error(),
			})
		}
	}
}

func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < crmRetryMax; attempt++ {
		if attempt > 0 {
			wait := crmRetryBase * time.Duration(1<<uint(attempt-1))
			jitter := time.Duration(rand.Int64N(int64(wait) / 2))
			select {
			case <-time.After(wait + jitter):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// retryableError marks a CRM response that's worth retrying (429 or 5xx).
type retryableError struct {
	statusCode int
	body       string
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("crm returned %d: %s", e.statusCode, e.body)
}

func isRetryable(err error) bool {
	_, ok := err.(*retryableError)
	return ok
}

func (c *Client) doJSON(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal crm request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		data, _ := io.ReadAll(resp.Body)
		return &retryableError{statusCode: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("crm returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
