// Package dashboard keeps one set of admin screens per signed-in browser
// session. Each dashboard owns its toast slot and a manager per resource.
package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"babyshop/auth"
	"babyshop/crud"
	"babyshop/gateway"
	"babyshop/resources"
	"babyshop/store"
	"babyshop/utils"
)

var ErrUnknownResource = errors.New("unknown resource")

// Factory holds what every dashboard is built from.
type Factory struct {
	API *gateway.Client
	// Team is shared by every dashboard so writes are serialised.
	Team     *store.LocalBackend
	Products *store.ProductStore
	Uploader store.Uploader

	PageSize     int
	BlogPageSize int
	ToastTimeout time.Duration
	Clock        clock.Clock
	Logger       *logrus.Entry
}

// Dashboard is the server-side state of one signed-in browser session.
type Dashboard struct {
	ID      string
	Session *auth.Session
	Toaster *crud.Toaster

	ctx      context.Context
	cancel   context.CancelFunc
	managers map[string]*crud.Manager

	mu       sync.Mutex
	lastSeen time.Time
}

func (f Factory) build(ctx context.Context, id string, acc *auth.Account) *Dashboard {
	ctx, cancel := context.WithCancel(ctx)
	d := &Dashboard{
		ID:       id,
		Session:  auth.NewSession(acc.User, acc.Credentials),
		Toaster:  crud.NewToaster(f.Clock, f.ToastTimeout),
		ctx:      ctx,
		cancel:   cancel,
		managers: map[string]*crud.Manager{},
		lastSeen: f.Clock.Now(),
	}

	deps := resources.Deps{
		API:          f.API,
		PageSize:     f.PageSize,
		BlogPageSize: f.BlogPageSize,
	}
	if f.Team != nil {
		deps.Team = f.Team
	}
	if f.Products != nil {
		deps.Products = f.Products.Backend(acc.User.UID, f.Uploader)
	}
	logger := f.Logger.WithField("dashboard", id[:8])
	for name, res := range resources.Build(deps) {
		m := crud.NewManager(res, d.Toaster, logger)
		if err := m.Start(ctx); err != nil {
			logger.WithError(err).WithField("resource", name).Warn("live updates unavailable")
		}
		d.managers[name] = m
	}
	return d
}

// Manager returns the screen of one resource.
func (d *Dashboard) Manager(name string) (*crud.Manager, error) {
	m, ok := d.managers[name]
	if !ok {
		return nil, ErrUnknownResource
	}
	return m, nil
}

// Names lists the available screens in sidebar order.
func (d *Dashboard) Names() []string {
	out := make([]string, 0, len(d.managers))
	for _, name := range resources.Names {
		if _, ok := d.managers[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Context is cancelled when the dashboard is dropped.
func (d *Dashboard) Context() context.Context {
	return d.ctx
}

func (d *Dashboard) touch(now time.Time) {
	d.mu.Lock()
	d.lastSeen = now
	d.mu.Unlock()
}

func (d *Dashboard) idleSince() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen
}

func (d *Dashboard) close() {
	d.cancel()
	d.Session.Stop()
	d.Toaster.Dismiss()
}

// Registry maps session ids to dashboards.
type Registry struct {
	ctx     context.Context
	factory Factory

	mu         sync.Mutex
	dashboards map[string]*Dashboard
}

func NewRegistry(ctx context.Context, f Factory) *Registry {
	if f.Clock == nil {
		f.Clock = clock.WallClock
	}
	if f.Logger == nil {
		f.Logger = logrus.WithField("component", "dashboard")
	}
	return &Registry{ctx: ctx, factory: f, dashboards: map[string]*Dashboard{}}
}

// Create opens a dashboard for a freshly signed-in account.
func (r *Registry) Create(acc *auth.Account) (*Dashboard, error) {
	id, err := utils.GenerateSecureToken()
	if err != nil {
		return nil, err
	}
	d := r.factory.build(r.ctx, id, acc)

	r.mu.Lock()
	r.dashboards[id] = d
	r.mu.Unlock()

	utils.LogEvent("dashboard_opened", map[string]interface{}{
		"uid":     acc.User.UID,
		"screens": d.Names(),
	})
	return d, nil
}

// Get returns a live dashboard and marks it as seen.
func (r *Registry) Get(id string) (*Dashboard, bool) {
	r.mu.Lock()
	d, ok := r.dashboards[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	d.touch(r.factory.Clock.Now())
	return d, true
}

// Drop signs a dashboard out.
func (r *Registry) Drop(id string) bool {
	r.mu.Lock()
	d, ok := r.dashboards[id]
	delete(r.dashboards, id)
	r.mu.Unlock()
	if ok {
		d.close()
	}
	return ok
}

// Sweep drops dashboards unseen for longer than idle and returns how many.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.factory.Clock.Now().Add(-idle)
	var stale []*Dashboard

	r.mu.Lock()
	for id, d := range r.dashboards {
		if d.idleSince().Before(cutoff) {
			stale = append(stale, d)
			delete(r.dashboards, id)
		}
	}
	r.mu.Unlock()

	for _, d := range stale {
		d.close()
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dashboards)
}

// IDs returns the open dashboard ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.dashboards))
	for id := range r.dashboards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close drops every dashboard.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Drop(id)
	}
}
