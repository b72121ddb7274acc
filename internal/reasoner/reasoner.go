// Package reasoner implements the remote reasoning backend (spec §4.8): a
// thin adapter over an LLM that turns a prompt into raw response text (parsed
// into a Decision by tools.ParseResponse), with retry,
// response caching, and in-flight deduplication layered on top so the brain
// can call it freely without worrying about redundant API traffic.
package reasoner

import (
	"context"
	"time"
)

// ExternalReasoner is the remote decision backend's contract. Implementations
// must be safe for concurrent use.
type ExternalReasoner interface {
	// Think sends prompt to the model and returns its raw text response,
	// ready for tools.ParseResponse.
	Think(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// DefaultTimeout bounds a single Think call when the caller's context carries
// no deadline.
const DefaultTimeout = 30 * time.Second

// DefaultMaxRetries is the number of retry attempts after the first failure.
const DefaultMaxRetries = 3

// DefaultCacheTTL is how long an identical (systemPrompt, prompt) pair's
// response is served from cache before a fresh call is made.
const DefaultCacheTTL = 300 * time.Second
