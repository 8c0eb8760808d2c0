package sqlt

import lru "github.com/hashicorp/golang-lru/v2"

/*
LRU cache of compiled templates, keyed by template text. Compilation is
relatively expensive; applications that build statements from a fixed set of
templates should parse through a shared cache rather than re-parsing on every
call. Safe for concurrent use. Parse failures are returned but never cached,
so a transiently-broken template doesn't poison the cache.
*/
type ScriptCache struct {
	cache *lru.Cache[string, Source]
}

// Creates a cache that holds up to `size` compiled templates.
func NewScriptCache(size int) (*ScriptCache, error) {
	cache, err := lru.New[string, Source](size)
	if err != nil {
		return nil, err
	}
	return &ScriptCache{cache}, nil
}

/*
Returns the compiled template for the given text, parsing and caching it on
the first request.
*/
func (self *ScriptCache) Get(src string) (Source, error) {
	out, ok := self.cache.Get(src)
	if ok {
		return out, nil
	}

	out, err := ParseScriptString(src)
	if err != nil {
		return nil, err
	}

	self.cache.Add(src, out)
	return out, nil
}

// Amount of templates currently cached.
func (self *ScriptCache) Len() int { return self.cache.Len() }

// Drops all cached templates.
func (self *ScriptCache) Purge() { self.cache.Purge() }
