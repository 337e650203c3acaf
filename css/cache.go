package css

import "sync"

type cachedSelector struct {
	list *SelectorList
	err  error
	used bool
}

// SelectorCache reuses compiled selector lists across stylesheet parses.
// Entries not requested during the latest parse are evicted by EndParse.
type SelectorCache struct {
	mu      sync.Mutex
	entries map[string]*cachedSelector
}

// NewSelectorCache returns an empty cache.
func NewSelectorCache() *SelectorCache {
	return &SelectorCache{entries: make(map[string]*cachedSelector)}
}

// BeginParse clears the used flag of every entry.
func (c *SelectorCache) BeginParse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.used = false
	}
}

// Compile returns the compiled list for text, compiling it on first use.
// Failed compilations are cached as well.
func (c *SelectorCache) Compile(text string) (*SelectorList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[text]; ok {
		e.used = true
		return e.list, e.err
	}
	list, err := CompileSelector(text)
	c.entries[text] = &cachedSelector{list: list, err: err, used: true}
	return list, err
}

// EndParse evicts entries not used since BeginParse and returns how many
// were removed.
func (c *SelectorCache) EndParse() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for text, e := range c.entries {
		if !e.used {
			delete(c.entries, text)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of cached selectors.
func (c *SelectorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
