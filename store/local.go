package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"babyshop/crud"
	"babyshop/utils"
)

// LocalBackend keeps a whole resource list as one JSON array in a KV. Ids are
// generated here, new records go first, and createdAt survives updates.
type LocalBackend struct {
	kv      KV
	key     string
	idField string
	now     func() time.Time
	logger  *logrus.Entry

	mu sync.Mutex
}

func NewLocalBackend(kv KV, key, idField string) *LocalBackend {
	return &LocalBackend{
		kv:      kv,
		key:     key,
		idField: idField,
		now:     time.Now,
		logger:  logrus.WithFields(logrus.Fields{"component": "local_store", "key": key}),
	}
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// read treats a missing or unreadable list as empty.
func (b *LocalBackend) read(ctx context.Context) ([]map[string]any, error) {
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.key, err)
	}
	if !ok || len(raw) == 0 {
		return []map[string]any{}, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		b.logger.WithError(err).Warn("stored list is not valid JSON, starting empty")
		return []map[string]any{}, nil
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

func (b *LocalBackend) write(ctx context.Context, rows []map[string]any) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.key, err)
	}
	if err := b.kv.Set(ctx, b.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", b.key, err)
	}
	return nil
}

func (b *LocalBackend) indexOf(rows []map[string]any, id crud.ID) int {
	for i, row := range rows {
		if crud.IDOf(row[b.idField]) == id {
			return i
		}
	}
	return -1
}

func (b *LocalBackend) List(ctx context.Context) ([]map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read(ctx)
}

func (b *LocalBackend) Get(ctx context.Context, id crud.ID) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.read(ctx)
	if err != nil {
		return nil, err
	}
	i := b.indexOf(rows, id)
	if i < 0 {
		return nil, crud.ErrNotFound
	}
	return rows[i], nil
}

func (b *LocalBackend) Create(ctx context.Context, p *crud.Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.read(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	rec := make(map[string]any, len(p.Fields)+3)
	for k, v := range p.Fields {
		rec[k] = v
	}
	rec[b.idField] = utils.NewLocalID(now)
	rec["createdAt"] = isoTime(now)
	rec["updatedAt"] = isoTime(now)

	return b.write(ctx, append([]map[string]any{rec}, rows...))
}

func (b *LocalBackend) Update(ctx context.Context, id crud.ID, p *crud.Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.read(ctx)
	if err != nil {
		return err
	}
	i := b.indexOf(rows, id)
	if i < 0 {
		return crud.ErrNotFound
	}
	now := b.now()
	rec := make(map[string]any, len(p.Fields)+3)
	for k, v := range p.Fields {
		rec[k] = v
	}
	rec[b.idField] = string(id)
	rec["createdAt"] = rows[i]["createdAt"]
	if rec["createdAt"] == nil || rec["createdAt"] == "" {
		rec["createdAt"] = isoTime(now)
	}
	rec["updatedAt"] = isoTime(now)
	rows[i] = rec

	return b.write(ctx, rows)
}

func (b *LocalBackend) Delete(ctx context.Context, id crud.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.read(ctx)
	if err != nil {
		return err
	}
	i := b.indexOf(rows, id)
	if i < 0 {
		return crud.ErrNotFound
	}
	return b.write(ctx, append(rows[:i], rows[i+1:]...))
}

// Clear drops the whole list.
func (b *LocalBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kv.Delete(ctx, b.key)
}
