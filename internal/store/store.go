package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"

	"github.com/quizlab/quizd/internal/model"
)

// Store defines the persistence interface for the answer cache. Entries are
// keyed by question content and overwritten last-write-wins.
type Store interface {
	GetAnswer(ctx context.Context, key string) (*model.CacheEntry, error)
	PutAnswer(ctx context.Context, entry model.CacheEntry) error
	CountAnswers(ctx context.Context) (int, error)
	PurgeAnswers(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// CacheKey derives the stable cache key for a question: the MD5 hex digest
// of title and options joined by "|". Kind is deliberately excluded so the
// same question text shares one entry across type hints.
func CacheKey(title, options string) string {
	sum := md5.Sum([]byte(title + "|" + options))
	return hex.EncodeToString(sum[:])
}
