package vm

import "fmt"

// PropCacheState is the state of one inline cache site.
type PropCacheState uint8

const (
	CacheStateUninitialized PropCacheState = iota
	CacheStateMonomorphic                  // Single shape cached
	CacheStatePolymorphic                  // Up to maxPolymorphic shapes cached
	CacheStateMegamorphic                  // Too many shapes, every lookup goes to the shape
)

const maxPolymorphic = 4

func (s PropCacheState) String() string {
	switch s {
	case CacheStateUninitialized:
		return "uninitialized"
	case CacheStateMonomorphic:
		return "monomorphic"
	case CacheStatePolymorphic:
		return "polymorphic"
	case CacheStateMegamorphic:
		return "megamorphic"
	}
	return fmt.Sprintf("PropCacheState(%d)", uint8(s))
}

// PropCacheEntry records where a key lives in objects of one shape.
// offset is -1 when the shape has no such key.
type PropCacheEntry struct {
	shape  *Shape
	offset int
	kind   DescriptorKind
}

// PropInlineCache memoizes key lookups for a single access site. Shapes are
// immutable, so an entry stays valid for as long as its shape exists.
type PropInlineCache struct {
	key        PropertyKey
	state      PropCacheState
	entries    [maxPolymorphic]PropCacheEntry
	entryCount int
}

func newPropInlineCache(key PropertyKey) *PropInlineCache {
	return &PropInlineCache{key: key}
}

func (ic *PropInlineCache) State() PropCacheState { return ic.state }

// lookupInCache returns the cached entry for shape.
func (ic *PropInlineCache) lookupInCache(shape *Shape) (PropCacheEntry, bool) {
	switch ic.state {
	case CacheStateMonomorphic:
		if ic.entries[0].shape == shape {
			return ic.entries[0], true
		}
	case CacheStatePolymorphic:
		for i := 0; i < ic.entryCount; i++ {
			if ic.entries[i].shape == shape {
				// Move hit entry to front
				if i > 0 {
					entry := ic.entries[i]
					copy(ic.entries[1:i+1], ic.entries[0:i])
					ic.entries[0] = entry
				}
				return ic.entries[0], true
			}
		}
	}
	return PropCacheEntry{}, false
}

// updateCache adds entry, moving the site towards megamorphic.
func (ic *PropInlineCache) updateCache(entry PropCacheEntry) {
	switch ic.state {
	case CacheStateUninitialized:
		ic.state = CacheStateMonomorphic
		ic.entries[0] = entry
		ic.entryCount = 1
	case CacheStateMonomorphic:
		ic.state = CacheStatePolymorphic
		ic.entries[1] = entry
		ic.entryCount = 2
	case CacheStatePolymorphic:
		if ic.entryCount < maxPolymorphic {
			ic.entries[ic.entryCount] = entry
			ic.entryCount++
			return
		}
		ic.state = CacheStateMegamorphic
		ic.entries = [maxPolymorphic]PropCacheEntry{}
		ic.entryCount = 0
	}
}

// resolve finds ic.key in objects of shape, through the cache when possible.
func (ic *PropInlineCache) resolve(shape *Shape, stats *ICacheStats) PropCacheEntry {
	state := ic.state
	if entry, ok := ic.lookupInCache(shape); ok {
		stats.record(state, true)
		return entry
	}
	stats.record(state, false)
	entry := PropCacheEntry{shape: shape, offset: -1}
	if i, d, ok := shape.Lookup(ic.key); ok {
		entry.offset = i
		entry.kind = d.Kind
	}
	ic.updateCache(entry)
	return entry
}

// resetCache clears the entries.
func (ic *PropInlineCache) resetCache() {
	ic.state = CacheStateUninitialized
	ic.entries = [maxPolymorphic]PropCacheEntry{}
	ic.entryCount = 0
}

// ICacheStats aggregates inline cache activity over all sites of a VM.
type ICacheStats struct {
	Hits            uint64
	Misses          uint64
	MonomorphicHits uint64
	PolymorphicHits uint64
	MegamorphicMiss uint64
}

func (s *ICacheStats) record(state PropCacheState, hit bool) {
	if !hit {
		s.Misses++
		if state == CacheStateMegamorphic {
			s.MegamorphicMiss++
		}
		return
	}
	s.Hits++
	if state == CacheStateMonomorphic {
		s.MonomorphicHits++
	} else {
		s.PolymorphicHits++
	}
}

// CacheStats returns the inline cache statistics of the VM.
func (vm *VM) CacheStats() ICacheStats {
	return vm.cacheStats
}

// ResetCaches drops every cached entry.
func (vm *VM) ResetCaches() {
	for _, ic := range vm.propCache {
		ic.resetCache()
	}
}

// propSite returns the inline cache registered under site.
func (vm *VM) propSite(site string, key PropertyKey) *PropInlineCache {
	ic, ok := vm.propCache[site]
	if !ok {
		ic = newPropInlineCache(key)
		vm.propCache[site] = ic
	}
	return ic
}

// getPropertyCached is GetProperty for a fixed-key site. Every object on the
// prototype chain is resolved through the site's cache.
func (vm *VM) getPropertyCached(ic *PropInlineCache, obj Value) (Value, error) {
	if !obj.IsObject() {
		return Undefined, nil
	}
	cur := obj.AsPlainObject()
	for {
		entry := ic.resolve(cur.shape, &vm.cacheStats)
		if entry.offset >= 0 {
			if entry.kind == DataKind {
				return cur.properties[entry.offset], nil
			}
			getter := cur.properties[entry.offset].AsAccessor().Getter
			if !getter.IsCallable() {
				return Undefined, nil
			}
			return vm.Call(getter, obj, nil)
		}
		if !cur.prototype.IsObject() {
			return Undefined, nil
		}
		cur = cur.prototype.AsPlainObject()
	}
}
