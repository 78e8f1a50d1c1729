package gateway

import (
	"errors"
	"testing"
)

func TestFormatAuthHeaderPassesThroughBasicPrefix(t *testing.T) {
	got := formatAuthHeader("Basic dXNlcjpwYXNz")
	if got != "Basic dXNlcjpwYXNz" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestFormatAuthHeaderEncodesRawKey(t *testing.T) {
	got := formatAuthHeader("secret-key")
	want := "Basic c2VjcmV0LWtleQ=="
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecodeMediaPayloadStandardBase64(t *testing.T) {
	decoded, err := decodeMediaPayload("aGVsbG8=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(decoded) != "hello" {
		t.Errorf("got %q, want %q", decoded, "hello")
	}
}

func TestDecodeMediaPayloadRawBase64(t *testing.T) {
	decoded, err := decodeMediaPayload("aGVsbG8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(decoded) != "hello" {
		t.Errorf("got %q, want %q", decoded, "hello")
	}
}

func TestIsConnectionErrorMatchesKnownMessages(t *testing.T) {
	if !isConnectionError(errors.New("client is not connected")) {
		t.Error("expected 'client is not connected' to be treated as a connection error")
	}
	if isConnectionError(errors.New("invalid phone number")) {
		t.Error("did not expect an unrelated error to be treated as a connection error")
	}
}
