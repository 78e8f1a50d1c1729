// Package llm selects between a primary and fallback chat model, both
// speaking the ADK model.LLM interface, for the conversation orchestrator
// and specialist subagents.
package llm

import (
	"context"
	"iter"
	"time"

	"sdrsolar/platform/ai/moonshot"
	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"

	"google.golang.org/adk/model"
)

// modelTimeout bounds a single completion call.
const modelTimeout = 20 * time.Second

// Router wraps a primary model.LLM and falls back to a secondary model
// when the primary errors or times out.
type Router struct {
	primary  model.LLM
	fallback model.LLM
	log      *logger.Logger
}

// New constructs a Router from LLMConfig, building Moonshot/Kimi-compatible
// adapters for both the primary and fallback model IDs.
func New(cfg config.LLMConfig, log *logger.Logger) *Router {
	primary := moonshot.NewModel(moonshot.Config{
		APIKey: cfg.GetPrimaryModelAPIKey(),
		Model:  cfg.GetPrimaryModelID(),
	})

	var fallback model.LLM
	if cfg.GetFallbackModelID() != "" {
		fallback = moonshot.NewModel(moonshot.Config{
			APIKey: cfg.GetFallbackModelAPIKey(),
			Model:  cfg.GetFallbackModelID(),
		})
	}

	return &Router{primary: primary, fallback: fallback, log: log}
}

// Name reports the primary model's identifier.
func (r *Router) Name() string {
	return r.primary.Name()
}

// GenerateContent tries the primary model first; on error (including
// timeout against modelTimeout) it falls back to the secondary model if
// one is configured. Matches model.LLM so Router can be handed directly
// to an ADK agent in place of a single model.
func (r *Router) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		callCtx, cancel := context.WithTimeout(ctx, modelTimeout)
		defer cancel()

		resp, err := firstResult(r.primary.GenerateContent(callCtx, req, stream))
		if err == nil {
			yield(resp, nil)
			return
		}

		if r.fallback == nil {
			r.log.Warn("primary model failed, no fallback configured", "error", err)
			yield(nil, err)
			return
		}

		r.log.Warn("primary model failed, retrying with fallback", "error", err, "fallback_model", r.fallback.Name())
		fallbackCtx, fallbackCancel := context.WithTimeout(ctx, modelTimeout)
		defer fallbackCancel()

		resp, err = firstResult(r.fallback.GenerateContent(fallbackCtx, req, stream))
		yield(resp, err)
	}
}

func firstResult(seq iter.Seq2[*model.LLMResponse, error]) (*model.LLMResponse, error) {
	var resp *model.LLMResponse
	var err error
	seq(func(r *model.LLMResponse, e error) bool {
		resp, err = r, e
		return false
	})
	return resp, err
}
