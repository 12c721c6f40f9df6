package views

import (
	"context"

	"library-admin/gate"
	"library-admin/library"
)

// Dashboard shows aggregate counts, the monthly lend histogram and the
// most recent lends.
type Dashboard struct {
	Page
	stats *library.DashboardStats
}

// NewDashboard returns an unopened dashboard.
func NewDashboard(env *Env) *Dashboard {
	d := &Dashboard{Page: newPage(env, string(library.EntityDashboard), gate.Required(library.EntityDashboard))}
	d.discard = func() { d.stats = nil }
	return d
}

// Stats is nil until a load succeeds.
func (d *Dashboard) Stats() *library.DashboardStats { return d.stats }

// Open gates the page and loads the stats.
func (d *Dashboard) Open(ctx context.Context) {
	if !d.enter() {
		return
	}
	d.load(ctx)
}

// Retry reloads after an error.
func (d *Dashboard) Retry(ctx context.Context) {
	if !d.active() {
		return
	}
	d.notice = nil
	d.load(ctx)
}

func (d *Dashboard) load(ctx context.Context) {
	d.state = StateLoading
	stats, err := d.client().DashboardStats(ctx)
	if err != nil {
		d.handle("load dashboard", err, true)
		return
	}
	d.stats = stats
	d.state = StateReady
}
