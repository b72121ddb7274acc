package reasoner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/joeunion/pidog/internal/logging"
)

type cacheEntry struct {
	response string
	expires  time.Time
}

// CachingReasoner wraps an ExternalReasoner with a TTL response cache and
// singleflight deduplication of concurrently identical prompts, so a burst
// of think cycles asking the same question only hits the backend once.
type CachingReasoner struct {
	inner   ExternalReasoner
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCachingReasoner wraps inner with the default cache TTL.
func NewCachingReasoner(inner ExternalReasoner) *CachingReasoner {
	return &CachingReasoner{
		inner:   inner,
		ttl:     DefaultCacheTTL,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(systemPrompt, prompt string) string {
	h := sha256.New()
	h.Write([]byte(systemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachingReasoner) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		return "", false
	}
	return entry.response, true
}

func (c *CachingReasoner) store(key, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{response: response, expires: time.Now().Add(c.ttl)}
}

// Think serves from cache when possible, otherwise deduplicates concurrent
// identical calls via singleflight before delegating to the wrapped reasoner.
func (c *CachingReasoner) Think(ctx context.Context, systemPrompt, prompt string) (string, error) {
	key := cacheKey(systemPrompt, prompt)

	if cached, ok := c.lookup(key); ok {
		logging.Get(logging.CategoryReasoner).Debug("Think: cache hit")
		return cached, nil
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		resp, err := c.inner.Think(ctx, systemPrompt, prompt)
		if err != nil {
			return "", err
		}
		c.store(key, resp)
		return resp, nil
	})
	if shared {
		logging.Get(logging.CategoryReasoner).Debug("Think: joined in-flight call")
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
