package worker

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

// ProductPoller is checked for changes made by other processes.
type ProductPoller interface {
	Poll(ctx context.Context) (bool, error)
}

// ProductWatchWorker polls the product table so live product lists also see
// writes from other instances.
type ProductWatchWorker struct {
	Poller   ProductPoller
	Interval time.Duration
	Clock    clock.Clock
	Logger   *logrus.Entry
}

func NewProductWatchWorker(poller ProductPoller, interval time.Duration, logger *logrus.Entry) *ProductWatchWorker {
	return &ProductWatchWorker{
		Poller:   poller,
		Interval: interval,
		Clock:    clock.WallClock,
		Logger:   logger,
	}
}

func (pw *ProductWatchWorker) Start(ctx context.Context) {
	pw.Logger.WithField("interval", pw.Interval).Info("Product watch worker started")

	// the first poll only records the current version
	pw.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			pw.Logger.Info("Product watch worker shutting down...")
			return
		case <-pw.Clock.After(pw.Interval):
			pw.poll(ctx)
		}
	}
}

func (pw *ProductWatchWorker) poll(ctx context.Context) {
	changed, err := pw.Poller.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			pw.Logger.WithError(err).Warn("Error polling products")
		}
		return
	}
	if changed {
		pw.Logger.Debug("Products changed elsewhere, notifying live lists")
	}
}
