package crm

import (
	"context"
	"errors"
	"testing"
)

func TestIsRetryableOnlyMatchesRetryableError(t *testing.T) {
	if isRetryable(errors.New("boom")) {
		t.Error("plain error should not be retryable")
	}
	if !isRetryable(&retryableError{statusCode: 503, body: "down"}) {
		t.Error("retryableError should be retryable")
	}
}

func TestClientWithRetryStopsOnNonRetryableError(t *testing.T) {
	c := &Client{log: nil}
	calls := 0
	err := c.withRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("validation failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt for non-retryable error, got %d", calls)
	}
}

func TestClientWithRetryRetriesRetryableError(t *testing.T) {
	c := &Client{log: nil}
	calls := 0
	err := c.withRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return &retryableError{statusCode: 503, body: "down"}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != crmRetryMax {
		t.Errorf("expected %d attempts, got %d", crmRetryMax, calls)
	}
}
