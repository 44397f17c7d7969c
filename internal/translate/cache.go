package translate

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKeyT [sha256.Size]byte

// unitCache keeps translated units by content hash. A nil *unitCache is a
// valid, always-missing cache.
type unitCache struct {
	units *lru.Cache[cacheKeyT, *Unit]
}

func newUnitCache(size int) (*unitCache, error) {
	units, err := lru.New[cacheKeyT, *Unit](size)
	if err != nil {
		return nil, err
	}
	return &unitCache{units: units}, nil
}

// cacheKey covers the filename because esbuild derives helper names such as
// "entry_exports" from it.
func cacheKey(filename string, src []byte) cacheKeyT {
	h := sha256.New()
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write(src)
	var k cacheKeyT
	copy(k[:], h.Sum(nil))
	return k
}

func (c *unitCache) get(k cacheKeyT) (*Unit, bool) {
	if c == nil {
		return nil, false
	}
	return c.units.Get(k)
}

func (c *unitCache) add(k cacheKeyT, u *Unit) {
	if c == nil {
		return
	}
	c.units.Add(k, u)
}

func (c *unitCache) len() int {
	if c == nil {
		return 0
	}
	return c.units.Len()
}
