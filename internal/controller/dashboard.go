// Package controller holds the login and dashboard controllers. Each
// dashboard keeps a view snapshot that is replaced wholesale by reload and
// is only written while the dashboard is mounted.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/taskdesk/internal/schedule"
)

// AuthLostFunc is called when an action finds the stored session unusable.
// The shell uses it to clear the session and return to login.
type AuthLostFunc func(ctx context.Context, err error)

// BannerKind classifies a banner.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is a transient message shown above a dashboard.
type Banner struct {
	Kind    BannerKind `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
	Err     error      `json:"-"`
}

// IsZero reports whether no banner is shown.
func (b Banner) IsZero() bool {
	return b.Kind == "" && b.Message == ""
}

func success(msg string) Banner {
	return Banner{Kind: BannerSuccess, Message: msg}
}

func failure(err error, fallback string) Banner {
	return Banner{Kind: BannerError, Message: describe(err, fallback), Err: err}
}

// dashboard holds the mount lifetime shared by both dashboards. Every view
// write goes through commit, which drops it once the dashboard is torn down.
type dashboard struct {
	mu       sync.Mutex
	life     context.Context
	cancel   context.CancelFunc
	inflight int

	interval   time.Duration
	logger     *slog.Logger
	onAuthLost AuthLostFunc
}

func newDashboard(interval time.Duration, logger *slog.Logger, onAuthLost AuthLostFunc) dashboard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return dashboard{interval: interval, logger: logger, onAuthLost: onAuthLost}
}

func (d *dashboard) aliveLocked() bool {
	return d.life != nil && d.life.Err() == nil
}

// Mounted reports whether the dashboard is live.
func (d *dashboard) Mounted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.aliveLocked()
}

// start begins a new lifetime and starts polling with reload. It reports
// false when the dashboard was already mounted.
func (d *dashboard) start(parent context.Context, reset func(), reload func(context.Context) error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aliveLocked() {
		return false
	}
	d.life, d.cancel = context.WithCancel(context.WithoutCancel(parent))
	d.inflight = 0
	reset()
	schedule.Every(d.life, d.interval, func(ctx context.Context) {
		if err := reload(ctx); err != nil && !errors.Is(err, ErrNotMounted) {
			d.logger.Debug("poll reload failed", "error", err)
		}
	})
	return true
}

// Close tears the dashboard down. Timers stop and results of requests
// still in flight are discarded.
func (d *dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
}

// begin binds an operation to the lifetime: the returned context is
// cancelled when either ctx or the lifetime ends.
func (d *dashboard) begin(ctx context.Context) (context.Context, func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.aliveLocked() {
		return nil, nil, ErrNotMounted
	}
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(d.life, cancel)
	d.inflight++
	return opCtx, func() {
		stop()
		cancel()
		d.mu.Lock()
		d.inflight--
		d.mu.Unlock()
	}, nil
}

// act runs one request bound to the lifetime. A request that finishes
// after teardown reports ErrNotMounted.
func (d *dashboard) act(ctx context.Context, fn func(context.Context) error) error {
	ctx, done, err := d.begin(ctx)
	if err != nil {
		return err
	}
	defer done()
	if err := fn(ctx); err != nil {
		return err
	}
	if !d.Mounted() {
		return ErrNotMounted
	}
	return nil
}

// commit applies fn to the view if the dashboard is still mounted.
func (d *dashboard) commit(fn func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.aliveLocked() {
		return ErrNotMounted
	}
	fn()
	return nil
}

// settle reports a failed operation through show and returns err. Failures
// after teardown are discarded; a lost session is handed to onAuthLost.
func (d *dashboard) settle(ctx context.Context, err error, show func(error)) error {
	if err == nil {
		return nil
	}
	if commitErr := d.commit(func() { show(err) }); commitErr != nil {
		return commitErr
	}
	if sessionLost(err) && d.onAuthLost != nil {
		d.onAuthLost(context.WithoutCancel(ctx), err)
	}
	return err
}

// afterLocked runs fn under the lock once d has elapsed, unless the dashboard is
// torn down first. Must be called with the lock held.
func (d *dashboard) afterLocked(delay time.Duration, fn func()) {
	if delay <= 0 || !d.aliveLocked() {
		return
	}
	schedule.After(d.life, delay, func(context.Context) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.aliveLocked() {
			fn()
		}
	})
}
