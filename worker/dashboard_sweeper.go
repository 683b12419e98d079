package worker

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

// Sweeper drops dashboards idle for longer than the given duration.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// DashboardSweeper closes dashboards whose browser went away without signing
// out.
type DashboardSweeper struct {
	Registry Sweeper
	IdleTTL  time.Duration
	Clock    clock.Clock
	Logger   *logrus.Entry
}

func NewDashboardSweeper(reg Sweeper, idleTTL time.Duration, logger *logrus.Entry) *DashboardSweeper {
	return &DashboardSweeper{
		Registry: reg,
		IdleTTL:  idleTTL,
		Clock:    clock.WallClock,
		Logger:   logger,
	}
}

// Start sweeps every quarter of the idle TTL, at least once a minute.
func (ds *DashboardSweeper) Start(ctx context.Context) {
	every := ds.IdleTTL / 4
	if every <= 0 || every > time.Minute {
		every = time.Minute
	}
	ds.Logger.WithField("idle_ttl", ds.IdleTTL).Info("Dashboard sweeper started")

	for {
		select {
		case <-ctx.Done():
			ds.Logger.Info("Dashboard sweeper shutting down...")
			return
		case <-ds.Clock.After(every):
			if n := ds.Registry.Sweep(ds.IdleTTL); n > 0 {
				ds.Logger.WithField("dropped", n).Info("Dropped idle dashboards")
			}
		}
	}
}
