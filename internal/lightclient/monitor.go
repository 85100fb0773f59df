package lightclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartMempoolMonitor starts polling the server's mempool for unconfirmed
// transactions paying the wallet. Calling it again is a no-op; Close stops it.
func (c *Client) StartMempoolMonitor() {
	if c.closed.Load() {
		return
	}
	c.monitorOnce.Do(func() {
		c.monitoring.Store(true)
		c.wg.Add(1)
		go c.monitorLoop(c.ctx, c.cfg.MonitorInterval)
	})
}

func (c *Client) monitorLoop(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()
	defer c.monitoring.Store(false)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.pollMempool(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollMempool(ctx)
		}
	}
}

func (c *Client) pollMempool(ctx context.Context) {
	txs, err := c.source.Mempool(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Debug("mempool poll failed", zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	c.wallet.observeMempool(txs)
	pending := len(c.wallet.pending)
	c.mu.Unlock()

	if pending > 0 {
		c.logger.Debug("unconfirmed incoming transactions", zap.Int("count", pending))
	}
}

// MonitorRunning reports whether the mempool monitor is polling.
func (c *Client) MonitorRunning() bool {
	return c.monitoring.Load()
}
