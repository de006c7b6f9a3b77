// package plugin assembles the Qobuz integration: it authenticates the
// provider client, builds the reporting and autoplay components, and binds
// their handlers to the host event bus. The host owns the bus and the play
// queue; the plugin owns everything provider-side.
package plugin

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/qbz/internal/autoplay"
	"github.com/desertthunder/qbz/internal/player"
	"github.com/desertthunder/qbz/internal/qobuz"
	"github.com/desertthunder/qbz/internal/reporter"
	"github.com/desertthunder/qbz/internal/shared"
)

// Plugin is a running Qobuz integration bound to a host event bus.
type Plugin struct {
	client   *qobuz.Client
	reporter *reporter.Reporter
	autoplay *autoplay.Engine
	logger   *log.Logger
	subs     []*player.Subscription
}

// Opts contains optional overrides for creating a Plugin.
type Opts struct {
	Client  *qobuz.Client // pre-built (already authenticated) client
	BaseURL string        // provider API base URL override
	Logger  *log.Logger
}

// New builds and starts the plugin: logs in to the provider, selects a
// working app secret, creates the reporter and autoplay engine, and
// subscribes both to the bus. The returned Plugin must be shut down with
// Shutdown to stop the reporting pipeline.
func New(ctx context.Context, cfg *shared.Config, bus *player.Bus, queue player.PlayQueue, opts Opts) (*Plugin, error) {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	logger := shared.WithLogger(opts.Logger, "component", "plugin")

	client := opts.Client
	if client == nil {
		var err error
		client, err = qobuz.NewClient(cfg.Qobuz, qobuz.ClientOpts{BaseURL: opts.BaseURL, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}

		if err := client.Login(ctx, cfg.Qobuz.Email, cfg.Qobuz.PasswordHash); err != nil {
			return nil, fmt.Errorf("provider login failed: %w", err)
		}
		if err := client.SelectSecret(ctx); err != nil {
			return nil, fmt.Errorf("app secret selection failed: %w", err)
		}
	}

	rep := reporter.New(client, reporter.Opts{
		Interval: time.Duration(cfg.Reporting.IntervalSeconds) * time.Second,
		Logger:   opts.Logger,
	})
	engine := autoplay.New(client, queue, autoplay.Opts{
		BatchSize: cfg.Autoplay.BatchSize,
		Logger:    opts.Logger,
	})

	p := &Plugin{
		client:   client,
		reporter: rep,
		autoplay: engine,
		logger:   logger,
	}

	p.subs = []*player.Subscription{
		bus.Subscribe(p.dispatch),
	}

	logger.Info("plugin started", "user", client.UserID(), "membership", client.MembershipLabel())
	return p, nil
}

// Client exposes the authenticated provider client for direct catalog use.
func (p *Plugin) Client() *qobuz.Client {
	return p.client
}

// dispatch routes bus events to the component that handles the variant.
func (p *Plugin) dispatch(event player.Event) {
	switch event.(type) {
	case player.StateChanged:
		p.reporter.HandleStateChanged(event)
	case player.TracksAdded:
		p.autoplay.HandleTracksAdded(event)
	case player.TracksRemoved:
		p.autoplay.HandleTracksRemoved(event)
	case player.RequestMoreTracks:
		p.autoplay.HandleRequestMoreTracks(event)
	default:
		p.logger.Warn("unhandled event variant", "event", fmt.Sprintf("%T", event))
	}
}

// Shutdown detaches the plugin from the bus and stops the reporting
// pipeline, blocking until queued reports are delivered.
func (p *Plugin) Shutdown() {
	for _, sub := range p.subs {
		sub.Unsubscribe()
	}
	p.subs = nil

	p.reporter.Shutdown()
	p.logger.Info("plugin stopped")
}
