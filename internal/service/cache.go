package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/templui/hrvault/internal/model"
)

// FileCache keeps recently redeemed file metadata so repeated downloads of a
// popular share link do not hit the database every time.
type FileCache struct {
	lru *expirable.LRU[string, *model.VaultFile]
}

func NewFileCache(size int, ttl time.Duration) *FileCache {
	if size <= 0 {
		size = 256
	}
	return &FileCache{lru: expirable.NewLRU[string, *model.VaultFile](size, nil, ttl)}
}

func (c *FileCache) Get(id string) (*model.VaultFile, bool) {
	f, ok := c.lru.Get(id)
	if ok {
		fileCacheHits.Inc()
	} else {
		fileCacheMisses.Inc()
	}
	return f, ok
}

func (c *FileCache) Set(f *model.VaultFile) {
	c.lru.Add(f.ID, f)
}

func (c *FileCache) Invalidate(id string) {
	c.lru.Remove(id)
}

func (c *FileCache) Len() int {
	return c.lru.Len()
}
