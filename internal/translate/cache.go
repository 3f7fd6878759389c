package translate

import (
	"context"
	"sync"

	"golang.org/x/text/language"
)

type cacheKey struct {
	text   string
	target string
}

// Cached memoizes successful translations in memory.
type Cached struct {
	next Translator

	mu      sync.RWMutex
	entries map[cacheKey]string
}

func NewCached(next Translator) *Cached {
	return &Cached{next: next, entries: make(map[cacheKey]string)}
}

func (c *Cached) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	key := cacheKey{text: text, target: target.String()}

	c.mu.RLock()
	out, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return out, nil
	}

	out, err := c.next.Translate(ctx, text, target)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = out
	c.mu.Unlock()

	return out, nil
}

// Len returns the number of cached translations.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
