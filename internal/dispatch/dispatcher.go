package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/federicoviola/AppTwitter/internal/config"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/platform"
	"github.com/federicoviola/AppTwitter/internal/repository"
	"github.com/federicoviola/AppTwitter/internal/scheduler"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// LastRunKey is the settings key holding the time of the last dispatch
// pass that did any work.
const LastRunKey = "last_dispatch_at"

// Dispatcher publishes due queue entries to their platforms. One Run
// processes everything due right now; RunDaemon keeps polling and also
// triggers periodic scheduling passes on a cron spec.
type Dispatcher struct {
	scheduler *scheduler.Scheduler
	clients   platform.Registry
	settings  repository.SettingsRepository

	pollInterval time.Duration
	postDelay    time.Duration
	scheduleSpec string

	log zerolog.Logger
}

// RunSummary reports the outcome of one dispatch pass
type RunSummary struct {
	Posted int
	Failed int
}

// New creates a dispatcher
func New(sched *scheduler.Scheduler, clients platform.Registry, settings repository.SettingsRepository, cfg config.DispatchConfig, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		scheduler:    sched,
		clients:      clients,
		settings:     settings,
		pollInterval: cfg.PollInterval,
		postDelay:    cfg.PostDelay,
		scheduleSpec: cfg.ScheduleSpec,
		log:          log.With().Str("component", "dispatcher").Logger(),
	}
}

// Run publishes every entry due at or before now. A failing entry is
// marked failed and the pass moves on; only storage errors abort it.
func (d *Dispatcher) Run(ctx context.Context) (*RunSummary, error) {
	pending, err := d.scheduler.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending posts: %w", err)
	}

	summary := &RunSummary{}
	for i, post := range pending {
		if i > 0 && d.postDelay > 0 {
			// Pace consecutive posts for external rate limits.
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(d.postDelay):
			}
		}

		if err := d.publish(ctx, post); err != nil {
			summary.Failed++
			if _, markErr := d.scheduler.MarkFailed(ctx, post.QueueID, err.Error()); markErr != nil {
				return summary, markErr
			}
			continue
		}
		summary.Posted++
	}

	if summary.Posted > 0 || summary.Failed > 0 {
		if err := d.settings.Set(ctx, LastRunKey, time.Now().Format(time.RFC3339)); err != nil {
			d.log.Warn().Err(err).Msg("Could not record last dispatch time")
		}
		d.log.Info().
			Int("posted", summary.Posted).
			Int("failed", summary.Failed).
			Msg("Dispatch pass completed")
	}

	return summary, nil
}

// publish sends one post to its platform and records the outcome
func (d *Dispatcher) publish(ctx context.Context, post *models.PendingPost) error {
	client := d.clients.For(post.Platform)
	if client == nil || !client.Available() {
		return fmt.Errorf("no client configured for platform %q", post.Platform)
	}

	result, err := client.Publish(ctx, post)
	if err != nil {
		d.log.Error().
			Err(err).
			Str("queue_id", post.QueueID).
			Str("platform", string(post.Platform)).
			Msg("Publish failed")
		return err
	}

	ok, err := d.scheduler.MarkPosted(ctx, post.QueueID, result.PostID, result.RawResponse)
	if err != nil {
		return err
	}
	if !ok {
		// Another process already settled this entry.
		d.log.Warn().Str("queue_id", post.QueueID).Msg("Entry no longer scheduled, skipping")
	}
	return nil
}

// RunDaemon polls for due posts until the context is cancelled. A cron
// job periodically promotes approved entries into slots so the queue
// keeps flowing without operator intervention.
func (d *Dispatcher) RunDaemon(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(d.scheduleSpec, func() {
		n, err := d.scheduler.ScheduleApproved(ctx)
		if err != nil {
			d.log.Error().Err(err).Msg("Scheduling pass failed")
			return
		}
		if n > 0 {
			d.log.Info().Int("scheduled", n).Msg("Scheduling pass completed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule spec %q: %w", d.scheduleSpec, err)
	}
	c.Start()
	defer c.Stop()

	d.log.Info().
		Dur("poll_interval", d.pollInterval).
		Str("schedule_spec", d.scheduleSpec).
		Msg("Dispatcher daemon started")

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("Dispatcher daemon stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.Run(ctx); err != nil && ctx.Err() == nil {
				d.log.Error().Err(err).Msg("Dispatch pass failed")
			}
		}
	}
}
