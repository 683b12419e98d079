package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babyshop/crud"
)

func payload(fields map[string]any) *crud.Payload {
	p := crud.NewPayload()
	for k, v := range fields {
		p.Set(k, v)
	}
	return p
}

func TestLocalBackendLifecycle(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend(NewMemoryKV(), "babyshop_team_members_v1", "id")
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	rows, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, b.Create(ctx, payload(map[string]any{"name": "Ayesha"})))
	clock = clock.Add(time.Minute)
	require.NoError(t, b.Create(ctx, payload(map[string]any{"name": "Rafi"})))

	rows, err = b.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Rafi", rows[0]["name"], "new records are prepended")

	first := crud.IDOf(rows[1]["id"])
	assert.Regexp(t, regexp.MustCompile(`^\d+_[0-9a-f]+$`), string(first))
	createdAt := rows[1]["createdAt"]
	assert.Equal(t, "2026-03-01T10:00:00.000Z", createdAt)

	clock = clock.Add(time.Hour)
	require.NoError(t, b.Update(ctx, first, payload(map[string]any{"id": string(first), "name": "Ayesha K"})))

	got, err := b.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Ayesha K", got["name"])
	assert.Equal(t, createdAt, got["createdAt"])
	assert.Equal(t, "2026-03-01T11:01:00.000Z", got["updatedAt"])

	require.NoError(t, b.Delete(ctx, first))
	rows, err = b.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Rafi", rows[0]["name"])

	assert.ErrorIs(t, b.Delete(ctx, first), crud.ErrNotFound)
	assert.ErrorIs(t, b.Update(ctx, first, payload(nil)), crud.ErrNotFound)
	_, err = b.Get(ctx, "nope")
	assert.ErrorIs(t, err, crud.ErrNotFound)

	require.NoError(t, b.Clear(ctx))
	rows, err = b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLocalBackendToleratesCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "team", []byte("{not json")))

	b := NewLocalBackend(kv, "team", "id")
	rows, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLocalBackendOnRedis(t *testing.T) {
	ctx := context.Background()
	kv, mr := newRedisKV(t)
	b := NewLocalBackend(kv, "team", "id")

	require.NoError(t, b.Create(ctx, payload(map[string]any{"name": "Nadia"})))
	raw, err := mr.Get("babyshop:team")
	require.NoError(t, err)
	assert.Contains(t, raw, `"name":"Nadia"`)

	// a second backend over the same store sees the same list
	other := NewLocalBackend(kv, "team", "id")
	rows, err := other.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
