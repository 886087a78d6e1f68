package cache

import (
	"errors"
	"sync"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/config"
)

// The cache is a package used for generic large objects that we want to
// cache. Mostly that means word lists; loading and uppercasing a few
// hundred thousand words per solve would be wasteful, and the solve
// service handles many requests against the same lexicon.

type cache struct {
	sync.Mutex
	objects map[string]interface{}
}

type loadFunc func(cfg *config.Config, key string) (interface{}, int, error)

// GlobalObjectCache is our global object cache, of course.
var GlobalObjectCache *cache

var errObjectTooBig = errors.New("object is too large to cache")

// maxObjectBytes is how big a single cached object may be, as a
// fraction of total system memory.
func maxObjectBytes(cfg *config.Config) uint64 {
	frac := cfg.GetFloat64(config.ConfigCacheMemoryGuard)
	if frac <= 0 || frac > 1 {
		frac = 0.25
	}
	return uint64(frac * float64(memory.TotalMemory()))
}

func (c *cache) load(cfg *config.Config, key string, loadFunc loadFunc) error {
	log.Debug().Str("key", key).Msg("loading into cache")

	obj, size, err := loadFunc(cfg, key)
	if err != nil {
		return err
	}
	if uint64(size) > maxObjectBytes(cfg) {
		return errObjectTooBig
	}
	c.objects[key] = obj

	return nil
}

func (c *cache) get(cfg *config.Config, key string, loadFunc loadFunc) (interface{}, error) {

	var ok bool
	var obj interface{}
	c.Lock()
	defer c.Unlock()
	if obj, ok = c.objects[key]; !ok {
		err := c.load(cfg, key, loadFunc)
		if err != nil {
			return nil, err
		}
		return c.objects[key], nil
	}
	log.Debug().Str("key", key).Msg("getting obj from cache")

	return obj, nil
}

func (c *cache) evict(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.objects, key)
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]interface{})}
}

func Load(cfg *config.Config, name string, loadFunc loadFunc) (interface{}, error) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	return GlobalObjectCache.get(cfg, name, loadFunc)
}

// Evict drops a cached object, for example after refetching a word
// list from the network.
func Evict(name string) {
	if GlobalObjectCache == nil {
		return
	}
	GlobalObjectCache.evict(name)
}
