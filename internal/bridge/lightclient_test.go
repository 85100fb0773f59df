package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/litebridge/internal/blocksource"
	"github.com/mrz1836/litebridge/internal/blocksource/blocksourcetest"
	"github.com/mrz1836/litebridge/internal/lightclient"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

func newLightClientBridge(t *testing.T, tip uint64) (*Bridge, *blocksourcetest.Server) {
	t.Helper()
	srv := blocksourcetest.NewServer(tip)
	t.Cleanup(srv.Close)

	backend := lightclient.NewBackend(lightclient.BackendOptions{
		Home:            t.TempDir(),
		Chain:           lightclient.Regtest,
		BatchSize:       50,
		MonitorInterval: 20 * time.Millisecond,
		NewSource: func(uri string) lightclient.BlockSource {
			return blocksource.NewClient(uri, &blocksource.Options{
				Retry: &blocksource.RetryConfig{MaxAttempts: 1},
			})
		},
	})
	return newTestBridge(t, NewLightClientBackend(backend), RunnerOptions{Workers: 2}), srv
}

func TestLightClient_NewWalletSyncFlow(t *testing.T) {
	t.Parallel()
	b, srv := newLightClientBridge(t, 1000)

	assert.False(t, b.WalletExists("regtest"))

	seed := b.InitializeNew(context.Background(), srv.URL)
	require.False(t, seed.Failed(), seed.String())
	assert.Len(t, strings.Fields(seed.String()), 24)
	assert.True(t, b.WalletExists("regtest"))

	assert.Equal(t, "OK", b.Execute("sync", "").String())

	balance := b.Execute("balance", "")
	require.False(t, strings.HasPrefix(balance.String(), ErrorPrefix), balance.String())
	var bal map[string]any
	require.NoError(t, json.Unmarshal([]byte(balance.String()), &bal))
	assert.Contains(t, bal, "spendable_balance")

	assert.Eventually(t, func() bool {
		var status lightclient.SyncStatus
		if err := json.Unmarshal([]byte(b.Execute("syncstatus", "").String()), &status); err != nil {
			return false
		}
		return !status.InProgress && status.SyncedBlocks == 101
	}, 5*time.Second, 10*time.Millisecond)

	assert.Contains(t, b.Execute("balanc", "").String(), "Did you mean 'balance'?")

	again := b.InitializeNew(context.Background(), srv.URL)
	assert.True(t, strings.HasPrefix(again.String(), "Error: wallet already exists"), again.String())
	require.ErrorIs(t, again.Err, bridgeerr.ErrWalletExists)
	assert.True(t, b.Initialized(), "a failed initialize leaves the live session alone")
}

func TestLightClient_RestoreAndReload(t *testing.T) {
	t.Parallel()
	b, srv := newLightClientBridge(t, 300)

	seed := b.InitializeNew(context.Background(), srv.URL)
	require.False(t, seed.Failed(), seed.String())
	phrase := seed.String()

	res := b.InitializeFromPhrase(context.Background(), srv.URL, phrase, 10, false)
	require.ErrorIs(t, res.Err, bridgeerr.ErrWalletExists)

	res = b.InitializeFromPhrase(context.Background(), srv.URL, phrase+" extra", 10, true)
	require.ErrorIs(t, res.Err, bridgeerr.ErrInvalidMnemonic)

	assert.Equal(t, "OK", b.InitializeFromPhrase(context.Background(), srv.URL, phrase, 10, true).String())
	assert.Equal(t, "OK", b.Deinitialize().String())
	assert.Equal(t, "Error: Light Client is not initialized", b.Execute("seed", "").String())

	assert.Equal(t, "OK", b.InitializeExisting(context.Background(), srv.URL).String())
	var got struct {
		Seed     string `json:"seed"`
		Birthday uint64 `json:"birthday"`
	}
	require.NoError(t, json.Unmarshal([]byte(b.Execute("seed", "").String()), &got))
	assert.Equal(t, phrase, got.Seed)
	assert.Equal(t, uint64(10), got.Birthday)
}

func TestLightClient_ReplacedSessionStopsPersisting(t *testing.T) {
	t.Parallel()
	b, srv := newLightClientBridge(t, 300)

	first := b.InitializeNew(context.Background(), srv.URL)
	require.False(t, first.Failed(), first.String())

	srv.SetBlockDelay(100 * time.Millisecond)
	assert.Equal(t, "OK", b.Execute("sync", "").String())

	replacement, err := lightclient.GenerateMnemonic()
	require.NoError(t, err)
	require.NotEqual(t, first.String(), replacement)
	assert.Equal(t, "OK", b.InitializeFromPhrase(context.Background(), srv.URL, replacement, 0, true).String())

	require.Eventually(t, func() bool { return b.Stats().PendingTasks == 0 }, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "OK", b.Deinitialize().String())
	assert.Equal(t, "OK", b.InitializeExisting(context.Background(), srv.URL).String())

	var got struct {
		Seed string `json:"seed"`
	}
	require.NoError(t, json.Unmarshal([]byte(b.Execute("seed", "").String()), &got))
	assert.Equal(t, replacement, got.Seed)
}

func TestLightClient_DeinitializedSyncStillPersists(t *testing.T) {
	t.Parallel()
	b, srv := newLightClientBridge(t, 300)

	require.False(t, b.InitializeNew(context.Background(), srv.URL).Failed())

	srv.SetBlockDelay(50 * time.Millisecond)
	assert.Equal(t, "OK", b.Execute("sync", "").String())
	assert.Equal(t, "OK", b.Deinitialize().String())

	require.Eventually(t, func() bool { return b.Stats().PendingTasks == 0 }, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "OK", b.InitializeExisting(context.Background(), srv.URL).String())
	assert.JSONEq(t, `{"height": 300}`, b.Execute("height", "").String())
}

func TestLightClient_UnreachableServer(t *testing.T) {
	t.Parallel()
	b, srv := newLightClientBridge(t, 10)
	srv.Close()

	res := b.InitializeNew(context.Background(), srv.URL)
	require.True(t, res.Failed())
	assert.True(t, strings.HasPrefix(res.String(), "Error: "), res.String())
	assert.False(t, b.Initialized())
}
