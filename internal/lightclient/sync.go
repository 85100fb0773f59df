package lightclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SyncStatus is the progress of the current or last sync run.
type SyncStatus struct {
	SyncID       uint64 `json:"sync_id"`
	InProgress   bool   `json:"in_progress"`
	LastError    string `json:"last_error,omitempty"`
	StartBlock   uint64 `json:"start_block,omitempty"`
	EndBlock     uint64 `json:"end_block,omitempty"`
	SyncedBlocks uint64 `json:"synced_blocks"`
	TotalBlocks  uint64 `json:"total_blocks"`
	Interrupted  bool   `json:"interrupted,omitempty"`
}

// SyncResult is returned by a completed sync run.
type SyncResult struct {
	Result            string `json:"result"`
	LatestBlock       uint64 `json:"latest_block"`
	TotalBlocksSynced uint64 `json:"total_blocks_synced"`
	Interrupted       bool   `json:"interrupted,omitempty"`
}

// Status returns a snapshot of the sync progress.
func (c *Client) Status() SyncStatus {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

func (c *Client) updateStatus(fn func(*SyncStatus)) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	fn(&c.status)
}

// Sync scans every block from the last synced height to the chain tip.
func (c *Client) Sync(ctx context.Context) (*SyncResult, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.syncLocked(ctx)
}

// Rescan forgets chain state and scans again from the wallet birthday.
func (c *Client) Rescan(ctx context.Context) (*SyncResult, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.Lock()
	c.wallet.resetChain()
	from := c.wallet.syncedHeight + 1
	c.mu.Unlock()

	c.logger.Info("rescan started", zap.Uint64("from", from))
	return c.syncLocked(ctx)
}

// InterruptSyncAfterBatch asks a running sync to stop once its current batch
// is scanned.
func (c *Client) InterruptSyncAfterBatch(interrupt bool) {
	c.interruptAfterBatch.Store(interrupt)
}

func (c *Client) syncLocked(ctx context.Context) (*SyncResult, error) {
	tip, err := c.source.LatestHeight(ctx)
	if err != nil {
		c.failSync(err)
		return nil, err
	}

	c.mu.RLock()
	start := c.wallet.syncedHeight + 1
	c.mu.RUnlock()

	var total uint64
	if tip >= start {
		total = tip - start + 1
	}

	c.updateStatus(func(s *SyncStatus) {
		*s = SyncStatus{
			SyncID:      s.SyncID + 1,
			InProgress:  true,
			StartBlock:  start,
			EndBlock:    tip,
			TotalBlocks: total,
		}
	})

	started := time.Now()
	var synced uint64
	interrupted := false

	batch := uint64(c.cfg.BatchSize) //nolint:gosec // batch size is validated positive
	for from := start; from <= tip; from += batch {
		to := min(from+batch-1, tip)

		if err := c.scanRange(ctx, from, to); err != nil {
			c.failSync(err)
			// Keep what was scanned so far.
			_ = c.save()
			return nil, err
		}

		synced += to - from + 1
		c.updateStatus(func(s *SyncStatus) { s.SyncedBlocks = synced })

		if to < tip && c.interruptAfterBatch.CompareAndSwap(true, false) {
			interrupted = true
			break
		}
	}

	if err := c.save(); err != nil {
		c.failSync(err)
		return nil, err
	}

	c.mu.RLock()
	latest := c.wallet.syncedHeight
	c.mu.RUnlock()

	c.updateStatus(func(s *SyncStatus) {
		s.InProgress = false
		s.Interrupted = interrupted
	})

	c.logger.Info("sync finished",
		zap.Uint64("latest_block", latest),
		zap.Uint64("blocks", synced),
		zap.Bool("interrupted", interrupted),
		zap.Duration("elapsed", time.Since(started)))

	return &SyncResult{
		Result:            "success",
		LatestBlock:       latest,
		TotalBlocksSynced: synced,
		Interrupted:       interrupted,
	}, nil
}

// scanRange fetches [from, to] and applies the blocks in order.
func (c *Client) scanRange(ctx context.Context, from, to uint64) error {
	blocks, err := c.source.Blocks(ctx, from, to)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expected := from
	for i := range blocks {
		b := &blocks[i]
		if b.Height != expected {
			return fmt.Errorf("%w: expected block %d, got %d", errBlockGap, expected, b.Height)
		}
		c.wallet.scanBlock(b)
		c.wallet.syncedHeight = b.Height
		expected++
	}
	if expected <= to {
		return fmt.Errorf("%w: server returned blocks up to %d of %d", errBlockGap, expected-1, to)
	}
	return nil
}

func (c *Client) failSync(err error) {
	c.logger.Warn("sync failed", zap.Error(err))
	c.updateStatus(func(s *SyncStatus) {
		s.InProgress = false
		s.LastError = err.Error()
	})
}

var errBlockGap = errors.New("block server returned a non-contiguous range")
