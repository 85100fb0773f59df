package blocksource_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/litebridge/internal/blocksource"
	"github.com/mrz1836/litebridge/internal/blocksource/blocksourcetest"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

func fastRetry() *blocksource.RetryConfig {
	return &blocksource.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestClient_LatestHeight(t *testing.T) {
	t.Parallel()
	srv := blocksourcetest.NewServer(1_000_500)
	defer srv.Close()

	client := blocksource.NewClient(srv.URL, nil)
	height, err := client.LatestHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_500), height)
}

func TestClient_Info(t *testing.T) {
	t.Parallel()
	srv := blocksourcetest.NewServer(42)
	defer srv.Close()

	info, err := blocksource.NewClient(srv.URL+"/", nil).Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), info.BlockHeight)
	assert.Equal(t, "main", info.ChainName)
}

func TestClient_Blocks(t *testing.T) {
	t.Parallel()
	srv := blocksourcetest.NewServer(10)
	defer srv.Close()
	srv.AddTransaction(5, blocksource.Transaction{
		TxID:    "aa",
		Outputs: []blocksource.Output{{Address: "t1abc", Value: 5000}},
	})

	client := blocksource.NewClient(srv.URL, nil)

	t.Run("returns range", func(t *testing.T) {
		blocks, err := client.Blocks(context.Background(), 4, 6)
		require.NoError(t, err)
		require.Len(t, blocks, 3)
		assert.Equal(t, uint64(5), blocks[1].Height)
		require.Len(t, blocks[1].Transactions, 1)
		assert.Equal(t, uint64(5000), blocks[1].Transactions[0].Outputs[0].Value)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := client.Blocks(context.Background(), 6, 4)
		require.ErrorIs(t, err, blocksource.ErrInvalidRange)
	})
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()
	srv := blocksourcetest.NewServer(77)
	defer srv.Close()
	srv.FailNext("/v1/latest", 2)

	client := blocksource.NewClient(srv.URL, &blocksource.Options{Retry: fastRetry()})
	height, err := client.LatestHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(77), height)
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	srv := blocksourcetest.NewServer(77)
	defer srv.Close()
	srv.FailNext("/v1/latest", 10)

	client := blocksource.NewClient(srv.URL, &blocksource.Options{Retry: fastRetry()})
	_, err := client.LatestHeight(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, bridgeerr.ErrNetwork)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	client := blocksource.NewClient(srv.URL, &blocksource.Options{Retry: fastRetry()})
	_, err := client.LatestHeight(context.Background())
	require.ErrorIs(t, err, bridgeerr.ErrNetwork)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "status 404")
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()
	client := blocksource.NewClient("http://127.0.0.1:1", &blocksource.Options{Retry: fastRetry()})
	_, err := client.LatestHeight(context.Background())
	require.ErrorIs(t, err, bridgeerr.ErrNetwork)
}

func TestClient_MempoolAndBroadcast(t *testing.T) {
	t.Parallel()
	srv := blocksourcetest.NewServer(5)
	defer srv.Close()
	srv.SetMempool([]blocksource.Transaction{{TxID: "pending"}})

	client := blocksource.NewClient(srv.URL, nil)

	txs, err := client.Mempool(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "pending", txs[0].TxID)

	txid, err := client.Broadcast(context.Background(), &blocksource.Transaction{
		Outputs: []blocksource.Output{{Address: "t1dest", Value: 10}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txid)
	require.Len(t, srv.Broadcasts(), 1)
}

func TestClient_ContextCanceled(t *testing.T) {
	t.Parallel()
	srv := blocksourcetest.NewServer(5)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := blocksource.NewClient(srv.URL, nil).LatestHeight(ctx)
	require.Error(t, err)
}
