package coordinator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/petkit-bridge/internal/device"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/petkit-bridge/internal/petkit"
)

// maxDetailFetches bounds concurrent per-device detail requests so a
// large account doesn't burst-hammer the vendor.
const maxDetailFetches = 4

// Coordinator polls one account on a fixed interval and keeps the
// device registry current.
type Coordinator struct {
	account  *petkit.Account
	registry *device.Registry
	logger   *logging.Logger
	interval time.Duration
}

// New creates a coordinator for an account. The polling interval comes
// from the account's configuration.
func New(account *petkit.Account, registry *device.Registry, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{
		account:  account,
		registry: registry,
		logger:   logger.With("account", account.Username()),
		interval: account.Interval(),
	}
}

// Run refreshes immediately, then on every tick until the context is
// cancelled. It always returns the context's error.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("coordinator started", "interval", c.interval.String())

	c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopped")
			return ctx.Err()
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Refresh performs one polling round: roster fetch, registry sync, and
// concurrent per-device detail refreshes.
func (c *Coordinator) Refresh(ctx context.Context) {
	roster := c.account.Devices(ctx)

	var devices []*device.Device
	for _, entry := range roster {
		data, _ := entry["data"].(map[string]any)
		if data == nil {
			continue
		}
		// The type tag lives on the roster entry, not the data payload.
		typeTag, _ := entry["type"].(string)
		data["type"] = typeTag

		d, _, err := c.registry.Sync(data, c.account)
		if err != nil {
			c.logger.Warn("skipping roster entry", "error", err)
			continue
		}
		devices = append(devices, d)
	}

	if len(devices) > 0 {
		c.logMissing(devices)
	}

	var g errgroup.Group
	g.SetLimit(maxDetailFetches)
	for _, d := range devices {
		d := d
		g.Go(func() error {
			d.RefreshDetail(ctx)
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Debug("refresh round complete", "devices", len(devices))
}

// logMissing warns about this account's devices that were absent from
// the round. They stay registered with their last known state.
func (c *Coordinator) logMissing(present []*device.Device) {
	seen := make(map[string]struct{}, len(present))
	for _, d := range present {
		seen[d.ID()] = struct{}{}
	}
	for _, d := range c.registry.Snapshot() {
		if d.Account() != c.account {
			continue
		}
		if _, ok := seen[d.ID()]; !ok {
			c.logger.Warn("device missing from roster",
				"device", d.ID(),
				"last_seen", d.LastSeen(),
			)
		}
	}
}
