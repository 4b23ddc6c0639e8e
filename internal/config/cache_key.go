package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AuthorSessionKey returns the cache key for an author's login session
func (r *CacheKeyStruct) AuthorSessionKey(authorID int64) string {
	return fmt.Sprintf("login:%d", authorID)
}

// PaperBlocksKey returns the cache key for a paper's block rows
func (r *CacheKeyStruct) PaperBlocksKey(paperID int64) string {
	return fmt.Sprintf("paper:%d:blocks", paperID)
}

// PaperPayloadKey returns the cache key for a paper's full payload
func (r *CacheKeyStruct) PaperPayloadKey(paperID int64) string {
	return fmt.Sprintf("paper:%d:payload", paperID)
}

// PaperEventChannel returns the Redis PubSub channel for a paper's edit events
func (r *CacheKeyStruct) PaperEventChannel(paperID int64) string {
	return fmt.Sprintf("paper:%d:events", paperID)
}

var CacheKey = NewCacheKeyStruct()
