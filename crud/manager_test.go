package crud

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babyshop/gateway"
)

// memBackend is an in-memory Backend that records every payload.
type memBackend struct {
	mu       sync.Mutex
	rows     []map[string]any
	nextID   int
	created  []*Payload
	updated  map[ID]*Payload
	deleted  []ID
	lists    int
	failList error
	failGet  error
	failSave error
	failDel  error
	getReply map[string]any
}

func newMemBackend(rows ...map[string]any) *memBackend {
	return &memBackend{rows: rows, nextID: 100, updated: map[ID]*Payload{}}
}

func (b *memBackend) List(context.Context) ([]map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	if b.failList != nil {
		return nil, b.failList
	}
	out := make([]map[string]any, len(b.rows))
	copy(out, b.rows)
	return out, nil
}

func (b *memBackend) Get(_ context.Context, id ID) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failGet != nil {
		return nil, b.failGet
	}
	if b.getReply != nil {
		return b.getReply, nil
	}
	for _, r := range b.rows {
		if IDOf(r["categoryId"]) == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (b *memBackend) Create(_ context.Context, p *Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSave != nil {
		return b.failSave
	}
	b.created = append(b.created, p)
	b.nextID++
	b.rows = append(b.rows, map[string]any{"categoryId": float64(b.nextID), "categoryName": p.Fields["categoryName"]})
	return nil
}

func (b *memBackend) Update(_ context.Context, id ID, p *Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSave != nil {
		return b.failSave
	}
	b.updated[id] = p
	for _, r := range b.rows {
		if IDOf(r["categoryId"]) == id {
			r["categoryName"] = p.Fields["categoryName"]
		}
	}
	return nil
}

func (b *memBackend) Delete(_ context.Context, id ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failDel != nil {
		return b.failDel
	}
	b.deleted = append(b.deleted, id)
	kept := b.rows[:0]
	for _, r := range b.rows {
		if IDOf(r["categoryId"]) != id {
			kept = append(kept, r)
		}
	}
	b.rows = kept
	return nil
}

func categoryResource(b Backend) *Resource {
	return &Resource{
		Name:      "categories",
		Title:     "Category",
		IDField:   "categoryId",
		NumericID: true,
		IDPolicy:  IDAlways,
		Fields: []Field{
			{Name: "categoryName", Kind: KindText, Rules: []Rule{Required("Category name is required")}},
		},
		SearchFields: []string{"categoryId", "categoryName"},
		PageSize:     10,
		Backend:      b,
		Extra: func(p *Payload, _ bool) {
			p.Set("categoryDescription", "")
			p.Set("statusId", float64(0))
		},
	}
}

func newTestManager(t *testing.T, b Backend) (*Manager, *Toaster) {
	t.Helper()
	toaster := NewToaster(testclock.NewClock(time.Now()), time.Minute)
	return NewManager(categoryResource(b), toaster, nil), toaster
}

func lastToast(t *testing.T, toaster *Toaster) Toast {
	t.Helper()
	toast, ok := toaster.Current()
	require.True(t, ok, "expected a toast")
	return toast
}

func TestCreateThenReload(t *testing.T) {
	b := newMemBackend()
	m, toaster := newTestManager(t, b)
	ctx := context.Background()

	require.NoError(t, m.Load(ctx))
	require.NoError(t, m.OpenCreate())
	require.NoError(t, m.SetField("categoryName", "  Toys "))
	require.NoError(t, m.Submit(ctx))

	require.Len(t, b.created, 1)
	assert.Equal(t, Record{
		"categoryId":          float64(0),
		"categoryName":        "Toys",
		"categoryDescription": "",
		"statusId":            float64(0),
	}, b.created[0].Fields)
	assert.Equal(t, []string{"categoryId", "categoryName", "categoryDescription", "statusId"}, b.created[0].Keys)

	st := m.State()
	assert.False(t, st.Form.Open)
	assert.False(t, st.Form.Saving)
	require.Len(t, st.Page.Items, 1)
	assert.Equal(t, "Toys", st.Page.Items[0]["categoryName"])
	assert.NotZero(t, ToNumber(st.Page.Items[0]["categoryId"]))

	toast := lastToast(t, toaster)
	assert.Equal(t, ToastSuccess, toast.Kind)
	assert.Equal(t, "Category added", toast.Message)
}

func TestUpdateThenGet(t *testing.T) {
	b := newMemBackend(map[string]any{"categoryId": float64(7), "categoryName": "Old"})
	m, _ := newTestManager(t, b)
	ctx := context.Background()

	require.NoError(t, m.Load(ctx))
	require.NoError(t, m.OpenEdit(ctx, "7"))
	assert.Equal(t, "Old", m.State().Form.Draft["categoryName"])

	require.NoError(t, m.SetField("categoryName", "Foo"))
	require.NoError(t, m.Submit(ctx))
	assert.Equal(t, float64(7), b.updated["7"].Fields["categoryId"])

	raw, err := b.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Foo", raw["categoryName"])
	assert.Equal(t, float64(7), raw["categoryId"])
}

func TestEditOpenCoalescesPascalCase(t *testing.T) {
	b := newMemBackend(map[string]any{"categoryId": float64(3), "categoryName": "Listed"})
	b.getReply = map[string]any{"CategoryName": "X"}
	m, _ := newTestManager(t, b)
	ctx := context.Background()

	require.NoError(t, m.Load(ctx))
	require.NoError(t, m.OpenEdit(ctx, "3"))

	st := m.State()
	assert.True(t, st.Form.Open)
	assert.True(t, st.Form.Editing)
	assert.Equal(t, ID("3"), st.Form.Target)
	assert.Equal(t, "X", st.Form.Draft["categoryName"])
}

func TestEditOpenFailureKeepsModalOpen(t *testing.T) {
	b := newMemBackend(map[string]any{"categoryId": float64(3), "categoryName": "Listed"})
	m, toaster := newTestManager(t, b)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	b.failGet = &gateway.RequestError{Status: 404, Message: "Not found"}
	require.Error(t, m.OpenEdit(ctx, "3"))

	st := m.State()
	assert.True(t, st.Form.Open)
	assert.False(t, st.Form.Loading)
	assert.Equal(t, "", st.Form.Draft["categoryName"])
	assert.Equal(t, "Edit Load Failed", lastToast(t, toaster).Title)
	assert.Equal(t, "Not found", lastToast(t, toaster).Message)
}

func TestOpenEditRequiresListedRecord(t *testing.T) {
	m, _ := newTestManager(t, newMemBackend())
	assert.ErrorIs(t, m.OpenEdit(context.Background(), "99"), ErrUnknownRecord)
	assert.ErrorIs(t, m.RequestDelete("99"), ErrUnknownRecord)
}

func TestValidationBlocksNetwork(t *testing.T) {
	b := newMemBackend()
	m, toaster := newTestManager(t, b)
	ctx := context.Background()

	require.NoError(t, m.OpenCreate())
	err := m.Submit(ctx)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"categoryName": "Category name is required"}, verr.Fields)

	assert.Empty(t, b.created)
	st := m.State()
	assert.True(t, st.Form.Open)
	assert.Equal(t, "Category name is required", st.Form.Errors["categoryName"])
	assert.Equal(t, ToastError, lastToast(t, toaster).Kind)

	require.NoError(t, m.SetField("categoryName", "ok"))
	assert.Empty(t, m.State().Form.Errors)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	b := newMemBackend()
	b.failSave = &gateway.RequestError{Status: 400, Message: "Name already exists"}
	m, toaster := newTestManager(t, b)
	ctx := context.Background()

	require.NoError(t, m.OpenCreate())
	require.NoError(t, m.SetField("categoryName", "Toys"))
	require.Error(t, m.Submit(ctx))

	st := m.State()
	assert.True(t, st.Form.Open)
	assert.False(t, st.Form.Saving)
	assert.Equal(t, "Toys", st.Form.Draft["categoryName"])
	assert.Equal(t, "Name already exists", lastToast(t, toaster).Message)
	assert.Equal(t, "Save Failed", lastToast(t, toaster).Title)
}

func TestDeleteFlowScenario(t *testing.T) {
	b := newMemBackend(
		map[string]any{"categoryId": float64(7), "categoryName": "Toys"},
		map[string]any{"categoryId": float64(8), "categoryName": "Books"},
	)
	m, toaster := newTestManager(t, b)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.RequestDelete("7"))
	assert.Equal(t, DeleteState{Pending: "7", Armed: true}, m.State().Delete)

	require.NoError(t, m.CancelDelete())
	assert.Equal(t, DeleteState{}, m.State().Delete)

	require.NoError(t, m.RequestDelete("7"))
	b.failDel = &gateway.RequestError{Status: 500, Message: "Request failed (500)"}
	require.Error(t, m.ConfirmDelete(ctx))

	assert.Equal(t, DeleteState{Pending: "7", Armed: true}, m.State().Delete)
	assert.Equal(t, ToastError, lastToast(t, toaster).Kind)
	assert.Equal(t, "Delete Failed", lastToast(t, toaster).Title)

	b.failDel = nil
	require.NoError(t, m.ConfirmDelete(ctx))
	assert.Equal(t, DeleteState{}, m.State().Delete)
	assert.Equal(t, []ID{"7"}, b.deleted)

	items := m.State().Page.Items
	require.Len(t, items, 1)
	assert.Equal(t, float64(8), items[0]["categoryId"])
	assert.Equal(t, "Category deleted", lastToast(t, toaster).Message)
}

func TestConfirmWithNothingPending(t *testing.T) {
	b := newMemBackend()
	m, _ := newTestManager(t, b)
	require.NoError(t, m.ConfirmDelete(context.Background()))
	assert.Empty(t, b.deleted)
	assert.Zero(t, b.lists)
}

func TestReloadIdempotentAndFailureKeepsList(t *testing.T) {
	b := newMemBackend(
		map[string]any{"categoryId": float64(1), "categoryName": "A"},
		map[string]any{"CategoryId": float64(2), "CategoryName": "B"},
	)
	m, toaster := newTestManager(t, b)
	ctx := context.Background()

	require.NoError(t, m.Load(ctx))
	first := m.State().Page
	require.NoError(t, m.Load(ctx))
	assert.Equal(t, first, m.State().Page)
	assert.Equal(t, "B", first.Items[1]["categoryName"])

	b.failList = errors.New("dial tcp: connection refused")
	require.Error(t, m.Load(ctx))
	assert.Equal(t, first, m.State().Page)
	assert.False(t, m.State().Loading)

	toast := lastToast(t, toaster)
	assert.Equal(t, "Load Failed", toast.Title)
	assert.Equal(t, "Failed to load", toast.Message)
}

func TestSearchAndPageThroughManager(t *testing.T) {
	rows := make([]map[string]any, 0, 25)
	for i := 1; i <= 25; i++ {
		rows = append(rows, map[string]any{"categoryId": float64(i), "categoryName": fmt.Sprintf("cat %02d", i)})
	}
	m, _ := newTestManager(t, newMemBackend(rows...))
	require.NoError(t, m.Load(context.Background()))

	assert.Equal(t, 3, m.State().Page.TotalPages)
	m.SetPage(3)
	assert.Len(t, m.State().Page.Items, 5)

	m.SetSearch("cat 2")
	st := m.State()
	assert.Equal(t, 1, st.Page.Page)
	assert.Equal(t, 6, st.Page.Total)
}

func TestReloadForgetsVanishedDeleteAndEditTargets(t *testing.T) {
	b := newMemBackend(
		map[string]any{"categoryId": float64(7), "categoryName": "Toys"},
		map[string]any{"categoryId": float64(8), "categoryName": "Books"},
	)
	m, toaster := newTestManager(t, b)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.RequestDelete("7"))
	require.NoError(t, m.OpenEdit(ctx, "7"))
	require.True(t, m.State().Form.Editing)

	// another session removes the record
	b.mu.Lock()
	b.rows = b.rows[1:]
	b.mu.Unlock()
	require.NoError(t, m.Load(ctx))

	st := m.State()
	assert.Equal(t, DeleteState{}, st.Delete)
	assert.False(t, st.Form.Open)
	assert.False(t, st.Form.Editing)
	assert.Empty(t, st.Form.Target)
	assert.Equal(t, ToastInfo, lastToast(t, toaster).Kind)

	// nothing pending, so confirming touches nothing
	require.NoError(t, m.ConfirmDelete(ctx))
	assert.Empty(t, b.deleted)
}

func TestReloadKeepsListedTargets(t *testing.T) {
	b := newMemBackend(
		map[string]any{"categoryId": float64(7), "categoryName": "Toys"},
		map[string]any{"categoryId": float64(8), "categoryName": "Books"},
	)
	m, _ := newTestManager(t, b)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.RequestDelete("8"))
	require.NoError(t, m.OpenEdit(ctx, "8"))
	require.NoError(t, m.SetField("categoryName", "Story books"))

	b.mu.Lock()
	b.rows = b.rows[1:]
	b.mu.Unlock()
	require.NoError(t, m.Load(ctx))

	st := m.State()
	assert.Equal(t, DeleteState{Pending: "8", Armed: true}, st.Delete)
	assert.True(t, st.Form.Open)
	assert.Equal(t, ID("8"), st.Form.Target)
	assert.Equal(t, "Story books", st.Form.Draft["categoryName"])
}

func TestSetPageSizeThroughManager(t *testing.T) {
	rows := make([]map[string]any, 0, 30)
	for i := 1; i <= 30; i++ {
		rows = append(rows, map[string]any{"categoryId": float64(i), "categoryName": fmt.Sprintf("cat %02d", i)})
	}
	m, _ := newTestManager(t, newMemBackend(rows...))
	require.NoError(t, m.Load(context.Background()))
	m.SetPage(3)

	require.NoError(t, m.SetPageSize(25))
	st := m.State()
	assert.Equal(t, 1, st.Page.Page)
	assert.Equal(t, 2, st.Page.TotalPages)
	assert.Len(t, st.Page.Items, 25)

	assert.ErrorIs(t, m.SetPageSize(-1), ErrPageSize)
	assert.Equal(t, 25, m.State().Page.PageSize)
}

func TestBusyGuards(t *testing.T) {
	block := make(chan struct{})
	b := &blockingBackend{memBackend: newMemBackend(), release: block, entered: make(chan struct{})}
	m, _ := newTestManager(t, b)
	ctx := context.Background()

	require.NoError(t, m.OpenCreate())
	require.NoError(t, m.SetField("categoryName", "Toys"))

	done := make(chan error, 1)
	go func() { done <- m.Submit(ctx) }()
	<-b.entered

	assert.True(t, m.State().Form.Saving)
	assert.ErrorIs(t, m.Submit(ctx), ErrBusy)
	assert.ErrorIs(t, m.CloseForm(), ErrBusy)

	close(block)
	require.NoError(t, <-done)
	assert.False(t, m.State().Form.Saving)
}

type blockingBackend struct {
	*memBackend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Create(ctx context.Context, p *Payload) error {
	close(b.entered)
	<-b.release
	return b.memBackend.Create(ctx, p)
}

type watchingBackend struct {
	*memBackend
	ch chan struct{}
}

func (b *watchingBackend) Watch(context.Context) (<-chan struct{}, error) {
	return b.ch, nil
}

func TestLiveBackendReloadsOnSignal(t *testing.T) {
	b := &watchingBackend{memBackend: newMemBackend(), ch: make(chan struct{}, 1)}
	m, _ := newTestManager(t, b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Start(ctx))
	assert.True(t, m.Live())

	require.NoError(t, m.OpenCreate())
	require.NoError(t, m.SetField("categoryName", "Live"))
	require.NoError(t, m.Submit(ctx))
	assert.Equal(t, 0, b.lists, "live managers do not reload after their own writes")

	b.ch <- struct{}{}
	assert.Eventually(t, func() bool {
		return len(m.State().Page.Items) == 1
	}, time.Second, 10*time.Millisecond)
	close(b.ch)
}

func TestBuildPayloadMultipartIDOnUpdate(t *testing.T) {
	res := &Resource{
		Name:      "blogs",
		IDField:   "blogId",
		IDKey:     "BlogID",
		NumericID: true,
		IDPolicy:  IDOnUpdate,
		Fields: []Field{
			{Name: "blogCategoryId", Key: "BlogCategoryID", Kind: KindNumber},
			{Name: "name", Key: "Name", Kind: KindText},
			{Name: "images", Key: "Images", Kind: KindImages, Omit: true},
		},
	}
	files := []gateway.File{{Name: "a.png", ContentType: "image/png"}}

	create := res.BuildPayload(Record{"blogCategoryId": "", "name": "Hi"}, files, "", false)
	assert.Equal(t, []string{"BlogCategoryID", "Name"}, create.Keys)
	assert.Equal(t, float64(0), create.Fields["BlogCategoryID"])
	assert.Equal(t, "Images", create.FileKey)
	assert.Len(t, create.Files, 1)

	update := res.BuildPayload(Record{"blogCategoryId": "4", "name": "Hi"}, nil, "12", true)
	assert.Equal(t, []string{"BlogID", "BlogCategoryID", "Name"}, update.Keys)
	assert.Equal(t, float64(12), update.Fields["BlogID"])
	assert.Equal(t, 3, update.Form().Len())
}
