package statusclock

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"dispatch-board/logger"
	departureModel "dispatch-board/models/departure"
	"dispatch-board/services/departure_event"
	"dispatch-board/services/live"

	"gorm.io/gorm"
)

// Config controls the status clock.
type Config struct {
	// Interval between sweeps.
	Interval time.Duration
	// Grace is how long past collection time a Waiting departure may sit
	// before it is marked Delayed. Loading departures get no grace.
	Grace time.Duration
}

// ConfigFromEnv reads STATUS_CLOCK_INTERVAL_SECONDS (default 60) and
// STATUS_CLOCK_GRACE_MINUTES (default 10).
func ConfigFromEnv() Config {
	cfg := Config{
		Interval: 60 * time.Second,
		Grace:    10 * time.Minute,
	}
	if v := os.Getenv("STATUS_CLOCK_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Interval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("STATUS_CLOCK_GRACE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Grace = time.Duration(n) * time.Minute
		}
	}
	return cfg
}

// Clock advances departure statuses from elapsed wall-clock time: a Loading
// truck past its collection time and a Waiting truck past collection time
// plus grace both become Delayed. Terminal statuses are never touched and
// Delayed is only ever cleared by an operator.
type Clock struct {
	db  *gorm.DB
	hub *live.Hub
	cfg Config

	// nowFn is swapped out by tests.
	nowFn func() time.Time
}

func New(db *gorm.DB, hub *live.Hub, cfg Config) *Clock {
	return &Clock{
		db:    db,
		hub:   hub,
		cfg:   cfg,
		nowFn: time.Now,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (c *Clock) Run(ctx context.Context) {
	logger.Info(fmt.Sprintf("Status clock started (interval %s, grace %s)", c.cfg.Interval, c.cfg.Grace))

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Status clock stopped")
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep evaluates every non-terminal departure once and persists the
// transitions that are due. The decision is re-derived from the current time
// on every sweep, so a failed write is retried naturally on the next tick.
// Returns the number of departures transitioned.
func (c *Clock) Sweep() int {
	now := c.nowFn()

	var rows []departureModel.Departure
	err := c.db.
		Where("status IN ?", []departureModel.Status{departureModel.StatusWaiting, departureModel.StatusLoading}).
		Find(&rows).Error
	if err != nil {
		logger.Error("Status clock failed to load departures", err)
		return 0
	}

	transitioned := 0
	for i := range rows {
		d := &rows[i]
		if !c.isOverdue(d, now) {
			continue
		}

		// Status-only merge write. A whole-row save here would clobber
		// concurrent operator edits to other fields.
		err := c.db.Model(&departureModel.Departure{}).
			Where("id = ?", d.ID).
			Updates(map[string]interface{}{
				"status":     departureModel.StatusDelayed,
				"updated_by": "status-clock",
			}).Error
		if err != nil {
			// One stuck row must not block the rest of the sweep.
			logger.Error(fmt.Sprintf("Status clock failed to delay departure %d", d.ID), err)
			continue
		}

		d.Status = departureModel.StatusDelayed
		if err := departure_event.SnapshotDepartureToEvent(c.db, d, departureModel.EventAutoDelayed, "status-clock"); err != nil {
			logger.Error(fmt.Sprintf("Failed to record auto-delay event for departure %d", d.ID), err)
		}

		logger.Warning(fmt.Sprintf("Departure %d (trailer %s) marked Delayed", d.ID, d.TrailerNumber))
		if c.hub != nil {
			c.hub.Announce(live.Notice{
				Kind:    live.NoticeStatusChanged,
				Title:   "Status changed",
				Message: fmt.Sprintf("Trailer %s for %s is now Delayed.", d.TrailerNumber, d.Carrier),
			})
		}
		transitioned++
	}

	if transitioned > 0 && c.hub != nil {
		c.hub.Refresh()
	}
	return transitioned
}

func (c *Clock) isOverdue(d *departureModel.Departure, now time.Time) bool {
	switch d.Status {
	case departureModel.StatusLoading:
		return now.After(d.CollectionTime)
	case departureModel.StatusWaiting:
		return now.After(d.CollectionTime.Add(c.cfg.Grace))
	default:
		return false
	}
}
