package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizlab/quizd/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestCacheKey(t *testing.T) {
	key := CacheKey("中国的首都是哪座城市？", "A.上海\nB.北京")

	assert.Len(t, key, 32)
	assert.Equal(t, key, CacheKey("中国的首都是哪座城市？", "A.上海\nB.北京"))

	// Title and options both participate in the key.
	assert.NotEqual(t, key, CacheKey("中国的首都是哪座城市？", ""))
	assert.NotEqual(t, key, CacheKey("另一道题", "A.上海\nB.北京"))
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	st := newTestStore(t)

	entry, err := st.GetAnswer(context.Background(), "no-such-key")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSQLiteStore_PutAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := model.CacheEntry{
		Key:     CacheKey("首都是？", "A.上海\nB.北京"),
		Title:   "首都是？",
		Options: "A.上海\nB.北京",
		Kind:    model.KindSingle,
		Answer:  "B",
	}
	require.NoError(t, st.PutAnswer(ctx, in))

	out, err := st.GetAnswer(ctx, in.Key)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Key, out.Key)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Options, out.Options)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, "B", out.Answer)
	assert.False(t, out.CreatedAt.IsZero())
}

func TestSQLiteStore_UpsertOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entry := model.CacheEntry{Key: "k1", Title: "首都是？", Answer: "A"}
	require.NoError(t, st.PutAnswer(ctx, entry))

	entry.Answer = "B"
	entry.Kind = model.KindSingle
	require.NoError(t, st.PutAnswer(ctx, entry))

	out, err := st.GetAnswer(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "B", out.Answer)
	assert.Equal(t, model.KindSingle, out.Kind)

	count, err := st.CountAnswers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_CountAndPurge(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"k1", "k2", "k3"} {
		require.NoError(t, st.PutAnswer(ctx, model.CacheEntry{Key: key, Title: "t", Answer: "a"}))
	}

	count, err := st.CountAnswers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	purged, err := st.PurgeAnswers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, purged)

	count, err = st.CountAnswers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}
