package resources

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babyshop/crud"
	"babyshop/fakeapi"
	"babyshop/gateway"
	"babyshop/models"
	"babyshop/store"
)

func startAPI(t *testing.T) (*fakeapi.Server, *gateway.Client) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := fakeapi.New()
	stop := srv.Listen(ln)
	t.Cleanup(func() { _ = stop() })
	return srv, gateway.NewClient("http://"+ln.Addr().String(), nil)
}

func newManager(res *crud.Resource) *crud.Manager {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	toaster := crud.NewToaster(testclock.NewClock(time.Now()), time.Minute)
	return crud.NewManager(res, toaster, logrus.NewEntry(logger))
}

func fixClock(t *testing.T) {
	t.Helper()
	now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
}

func TestCategoryLifecycle(t *testing.T) {
	fixClock(t)
	srv, api := startAPI(t)
	ctx := context.Background()
	m := newManager(Category(api, 10))

	require.NoError(t, m.Load(ctx))
	require.NoError(t, m.OpenCreate())
	require.NoError(t, m.SetField("categoryName", "  Toys "))
	require.NoError(t, m.Submit(ctx))

	row, ok := srv.Row("category", 1)
	require.True(t, ok)
	assert.Equal(t, "Toys", row["categoryName"])
	assert.Equal(t, "2025-03-01T10:00:00.000Z", row["createdDate"])

	st := m.State()
	require.Len(t, st.Page.Items, 1)
	assert.Equal(t, "Saved", st.Toast.Title)
	assert.False(t, st.Form.Open)

	require.NoError(t, m.OpenEdit(ctx, "1"))
	assert.Equal(t, "Toys", m.State().Form.Draft["categoryName"])
	require.NoError(t, m.SetField("categoryName", "Games"))
	require.NoError(t, m.Submit(ctx))
	row, _ = srv.Row("category", 1)
	assert.Equal(t, "Games", row["categoryName"])

	require.NoError(t, m.RequestDelete("1"))
	require.NoError(t, m.ConfirmDelete(ctx))
	assert.Empty(t, m.State().Page.Items)

	assert.Equal(t, []string{
		"GET /api/Category/GetAll_Category",
		"POST /api/Category",
		"GET /api/Category/GetAll_Category",
		"GET /api/Category/GetCategoryById/1",
		"PUT /api/Category/GetCategoryById/1",
		"GET /api/Category/GetAll_Category",
		"PUT /api/Category/DeleteCategoryById/1",
		"GET /api/Category/GetAll_Category",
	}, srv.Calls())
}

func TestCategoryDeleteFailureKeepsRow(t *testing.T) {
	srv, api := startAPI(t)
	ctx := context.Background()
	srv.Seed("category", fiber.Map{"categoryName": "Toys"})
	srv.Fail(fiber.MethodPut, "/api/Category/DeleteCategoryById/1", fiber.StatusInternalServerError, "Server error")

	m := newManager(Category(api, 10))
	require.NoError(t, m.Load(ctx))
	require.NoError(t, m.RequestDelete("1"))

	err := m.ConfirmDelete(ctx)
	require.Error(t, err)
	assert.Equal(t, 500, gateway.StatusOf(err))

	st := m.State()
	assert.Len(t, st.Page.Items, 1)
	assert.True(t, st.Delete.Armed)
	assert.False(t, st.Delete.Deleting)
	require.NotNil(t, st.Toast)
	assert.Equal(t, "Delete Failed", st.Toast.Title)
	assert.Equal(t, "Server error", st.Toast.Message)
}

func TestBlogCategoryNormalizesPascalCase(t *testing.T) {
	srv, api := startAPI(t)
	ctx := context.Background()
	srv.Seed("blogCategory", fiber.Map{"CategoryName": "News", "CategoryTypeID": 2})

	m := newManager(BlogCategory(api, 10))
	require.NoError(t, m.Load(ctx))
	items := m.State().Page.Items
	require.Len(t, items, 1)
	assert.Equal(t, "News", items[0]["categoryName"])
	assert.Equal(t, float64(2), items[0]["categoryTypeID"])
	assert.Equal(t, crud.ID("1"), crud.IDOf(items[0]["categoryId"]))

	m.SetSearch("new")
	assert.Len(t, m.State().Page.Items, 1)
	m.SetSearch("sports")
	assert.Empty(t, m.State().Page.Items)
}

func TestCategoryOptions(t *testing.T) {
	srv, api := startAPI(t)
	srv.Seed("blogCategory", fiber.Map{"CategoryName": "News"})
	srv.Seed("blogCategory", fiber.Map{"CategoryName": ""})

	opts, err := CategoryOptions(BlogCategory(api, 10).Backend)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []crud.Option{
		{Label: "News", Value: float64(1)},
		{Label: "Category 2", Value: float64(2)},
	}, opts)
}

func TestBlogPostCreateAndEdit(t *testing.T) {
	srv, api := startAPI(t)
	ctx := context.Background()
	srv.Seed("blogCategory", fiber.Map{"CategoryName": "News"})

	res := Build(Deps{API: api, PageSize: 10, BlogPageSize: 25})[Blogs]
	m := newManager(res)
	require.NoError(t, m.Load(ctx))
	assert.Len(t, m.State().Options["blogCategoryId"], 1)

	require.NoError(t, m.OpenCreate())
	require.NoError(t, m.SetField("name", "Spring sale"))
	require.NoError(t, m.SetField("blogCategoryId", 1))

	err := m.Submit(ctx)
	var verr *crud.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ProductID required", verr.Fields["productId"])
	assert.Equal(t, "At least 1 image required", verr.Fields["images"])

	require.NoError(t, m.SetField("productId", "7"))
	require.NoError(t, m.StageFiles([]gateway.File{
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("x")},
		{Name: "cover.png", ContentType: "image/png", Data: []byte("\x89PNG")},
	}))
	assert.Len(t, m.State().Form.Staged, 1)
	require.NoError(t, m.Submit(ctx))

	row, ok := srv.Row("blog", 1)
	require.True(t, ok)
	assert.Equal(t, "Spring sale", row["name"])
	assert.Equal(t, 7, row["productId"])
	assert.Equal(t, []string{"/uploads/1.png"}, row["images"])

	items := m.State().Page.Items
	require.Len(t, items, 1)
	assert.Equal(t, api.BaseURL()+"/uploads/1.png", items[0]["coverImageUrl"])

	require.NoError(t, m.OpenEdit(ctx, "1"))
	assert.ErrorIs(t, m.RemoveImage(0), crud.ErrImageLocked)
	require.NoError(t, m.SetField("description", "Half price"))
	require.NoError(t, m.Submit(ctx))

	row, _ = srv.Row("blog", 1)
	assert.Equal(t, "Half price", row["description"])
	assert.Equal(t, []string{"/uploads/1.png"}, row["images"])
}

func TestTeamMember(t *testing.T) {
	ctx := context.Background()
	res := TeamMember(store.NewLocalBackend(store.NewMemoryKV(), models.TeamStorageKey, "id"), 10)
	m := newManager(res)
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.OpenCreate())
	assert.Equal(t, models.MemberActive, m.State().Form.Draft["status"])
	require.NoError(t, m.SetField("name", "Ada Byron Lovelace"))
	require.NoError(t, m.SetField("website", "not a url"))

	err := m.Submit(ctx)
	require.True(t, crud.IsValidation(err))
	st := m.State()
	assert.Equal(t, "Please fix required fields.", st.Toast.Message)
	assert.Equal(t, "Invalid URL", st.Form.Errors["website"])
	assert.Equal(t, "Photo is required", st.Form.Errors["photoUrl"])

	assert.ErrorIs(t, m.StageFiles([]gateway.File{{Name: "a.pdf", ContentType: "application/pdf"}}), crud.ErrInvalidFile)
	require.NoError(t, m.StageFiles([]gateway.File{{Name: "a.png", ContentType: "image/png", Data: []byte("png")}}))
	require.NoError(t, m.SetField("website", "https://example.com"))
	require.NoError(t, m.SetField("role", "Owner"))
	require.NoError(t, m.SetField("shortTitle", "Founder"))
	require.NoError(t, m.SetField("message", "Hello"))
	require.NoError(t, m.Submit(ctx))

	st = m.State()
	require.Len(t, st.Page.Items, 1)
	assert.Equal(t, "New member added.", st.Toast.Message)
	assert.Equal(t, "AL", st.Page.Items[0]["initials"])
	assert.Equal(t, "data:image/png;base64,cG5n", st.Page.Items[0]["photoUrl"])

	require.NoError(t, m.Clear(ctx))
	assert.Empty(t, m.State().Page.Items)
	assert.Equal(t, "All local members removed.", m.State().Toast.Message)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "U", Initials("   "))
	assert.Equal(t, "A", Initials("ada"))
	assert.Equal(t, "AL", Initials("ada  lovelace"))
	assert.Equal(t, "ÉZ", Initials("élodie de zed"))
}

func TestBuildSkipsMissingBackends(t *testing.T) {
	all := Build(Deps{Team: store.NewLocalBackend(store.NewMemoryKV(), models.TeamStorageKey, "id")})
	assert.Len(t, all, 1)
	assert.Contains(t, all, Team)
}
