package llm

import (
	"context"
	"errors"
	"iter"
	"testing"

	"sdrsolar/platform/logger"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

type fakeModel struct {
	name string
	resp *model.LLMResponse
	err  error
}

func (f fakeModel) Name() string { return f.name }

func (f fakeModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		yield(f.resp, f.err)
	}
}

func TestRouterFallsBackWhenPrimaryFails(t *testing.T) {
	fallbackResp := &model.LLMResponse{Content: &genai.Content{Role: genai.RoleModel}}

	router := &Router{
		primary:  fakeModel{name: "primary", err: errors.New("timeout")},
		fallback: fakeModel{name: "fallback", resp: fallbackResp},
		log:      logger.New("test"),
	}

	var got *model.LLMResponse
	var gotErr error
	router.GenerateContent(context.Background(), &model.LLMRequest{}, false)(func(r *model.LLMResponse, e error) bool {
		got, gotErr = r, e
		return false
	})

	if gotErr != nil {
		t.Fatalf("expected fallback to succeed, got error: %v", gotErr)
	}
	if got != fallbackResp {
		t.Fatalf("expected fallback response, got %v", got)
	}
}

func TestRouterReturnsPrimaryErrorWithoutFallback(t *testing.T) {
	router := &Router{
		primary: fakeModel{name: "primary", err: errors.New("boom")},
		log:     logger.New("test"),
	}

	var gotErr error
	router.GenerateContent(context.Background(), &model.LLMRequest{}, false)(func(r *model.LLMResponse, e error) bool {
		gotErr = e
		return false
	})

	if gotErr == nil {
		t.Fatal("expected error when no fallback is configured")
	}
}
