package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"babyshop/auth"
	"babyshop/models"
	"babyshop/resources"
	"babyshop/store"
)

func newFactory(t *testing.T, clk *testclock.Clock) Factory {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	return Factory{
		Team:         store.NewLocalBackend(store.NewMemoryKV(), models.TeamStorageKey, "id"),
		Products:     store.NewProductStore(db),
		PageSize:     10,
		BlogPageSize: 25,
		ToastTimeout: 2500 * time.Millisecond,
		Clock:        clk,
	}
}

func account(uid string) *auth.Account {
	return &auth.Account{User: models.User{UID: uid, Email: uid + "@example.com"}, Credentials: auth.Credentials{IDToken: "tok"}}
}

func TestRegistryLifecycle(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	reg := NewRegistry(context.Background(), newFactory(t, clk))
	defer reg.Close()

	d, err := reg.Create(account("u1"))
	require.NoError(t, err)
	assert.Len(t, d.ID, 64)
	assert.Equal(t, []string{resources.Products, resources.Team}, d.Names())

	products, err := d.Manager(resources.Products)
	require.NoError(t, err)
	assert.True(t, products.Live())
	_, err = d.Manager(resources.Blogs)
	assert.ErrorIs(t, err, ErrUnknownResource)

	user, ok := d.Session.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "u1", user.UID)

	got, ok := reg.Get(d.ID)
	require.True(t, ok)
	assert.Same(t, d, got)

	require.True(t, reg.Drop(d.ID))
	assert.False(t, reg.Drop(d.ID))
	assert.True(t, d.Session.Stopped())
	assert.Error(t, d.Context().Err())
	_, ok = reg.Get(d.ID)
	assert.False(t, ok)
}

func TestSweepDropsIdleDashboards(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	reg := NewRegistry(context.Background(), newFactory(t, clk))
	defer reg.Close()

	idle, err := reg.Create(account("u1"))
	require.NoError(t, err)
	active, err := reg.Create(account("u2"))
	require.NoError(t, err)

	clk.Advance(20 * time.Minute)
	_, ok := reg.Get(active.ID)
	require.True(t, ok)
	clk.Advance(15 * time.Minute)

	assert.Equal(t, 1, reg.Sweep(30*time.Minute))
	assert.Equal(t, []string{active.ID}, reg.IDs())
	assert.True(t, idle.Session.Stopped())
	assert.False(t, active.Session.Stopped())
}

func TestDashboardsShareTeamStore(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	reg := NewRegistry(context.Background(), newFactory(t, clk))
	defer reg.Close()
	ctx := context.Background()

	a, err := reg.Create(account("u1"))
	require.NoError(t, err)
	b, err := reg.Create(account("u2"))
	require.NoError(t, err)

	teamA, _ := a.Manager(resources.Team)
	teamB, _ := b.Manager(resources.Team)
	require.NoError(t, teamA.OpenCreate())
	for field, v := range map[string]string{
		"photoUrl": "data:image/png;base64,AA==", "name": "Ada", "role": "Owner",
		"shortTitle": "Founder", "message": "Hi",
	} {
		require.NoError(t, teamA.SetField(field, v))
	}
	require.NoError(t, teamA.Submit(ctx))

	require.NoError(t, teamB.Load(ctx))
	assert.Equal(t, 1, teamB.State().Page.Total)

	// toasts are per dashboard
	_, shown := a.Toaster.Current()
	assert.True(t, shown)
	_, shown = b.Toaster.Current()
	assert.False(t, shown)
}
