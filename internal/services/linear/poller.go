package linear

import (
	"context"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
)

// MinPollInterval is the shortest interval StartPolling accepts
const MinPollInterval = 10 * time.Second

// StartPolling refreshes issues every interval and publishes each snapshot on
// issues:updated. An empty teamID polls the user's assigned issues, otherwise
// the team's active cycle. Only one poller runs at a time: calling
// StartPolling while polling is a no-op.
func (c *Client) StartPolling(teamID string, interval time.Duration) {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	if c.pollCancel != nil {
		return
	}
	if interval < c.minPoll {
		interval = c.minPoll
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.pollCancel = cancel
	c.pollDone = done

	c.logger.Info("starting issue polling", "teamID", teamID, "interval", interval)
	go c.poll(ctx, done, teamID, interval)
}

// StopPolling stops the poller and waits for it to exit. It is idempotent.
func (c *Client) StopPolling() {
	c.pollMu.Lock()
	cancel, done := c.pollCancel, c.pollDone
	c.pollCancel, c.pollDone = nil, nil
	c.pollMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.logger.Info("stopped issue polling")
}

// Polling reports whether a poller is running
func (c *Client) Polling() bool {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()
	return c.pollCancel != nil
}

func (c *Client) poll(ctx context.Context, done chan struct{}, teamID string, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := c.fetch(ctx, teamID)
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn("issue poll failed", "teamID", teamID, "error", err)
				}
				continue
			}
			c.bus.Publish(events.IssuesUpdated, "", snap)
		}
	}
}

func (c *Client) fetch(ctx context.Context, teamID string) (domain.IssueSnapshot, error) {
	if teamID == "" {
		return c.MyIssues(ctx)
	}
	return c.CycleIssues(ctx, teamID)
}
