// Package intent turns free-text user messages into typed intent analyses,
// using a text-generation capability when available and deterministic keyword
// heuristics when it is not.
package intent

import (
	"context"
	"errors"
)

// LLMRequest is a single-turn completion request.
type LLMRequest struct {
	System      string
	Prompt      string
	MaxTokens   int32
	Temperature float32
}

// LLMResponse carries the raw generated text. No structural guarantee is made
// about its contents; see the recovery pipeline.
type LLMResponse struct {
	Text string
}

// LLMClient abstracts the external text-generation capability.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// ErrLLMDisabled is returned by DisabledClient for every completion.
var ErrLLMDisabled = errors.New("intent: llm client disabled")

// DisabledClient satisfies LLMClient when no API key is configured. Every
// call fails, which routes analysis through the keyword fallback.
type DisabledClient struct{}

// Complete always returns ErrLLMDisabled.
func (DisabledClient) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	return LLMResponse{}, ErrLLMDisabled
}
