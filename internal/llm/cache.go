package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedClient memoizes successful responses by prompt
type CachedClient struct {
	next  Client
	cache *lru.Cache[string, string]
}

// NewCachedClient wraps next with an LRU of the given size
func NewCachedClient(next Client, size int) (*CachedClient, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedClient{next: next, cache: cache}, nil
}

func (c *CachedClient) Name() string { return c.next.Name() }

func (c *CachedClient) Generate(ctx context.Context, prompt string) (string, error) {
	key := c.key(prompt)
	if text, ok := c.cache.Get(key); ok {
		return text, nil
	}

	text, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, text)
	return text, nil
}

// Len returns the number of cached responses
func (c *CachedClient) Len() int {
	return c.cache.Len()
}

func (c *CachedClient) key(prompt string) string {
	sum := sha256.Sum256([]byte(c.next.Name() + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}
