package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

func TestResult_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "OK", OK("OK").String())
	assert.False(t, OK("x").Failed())
	assert.Empty(t, OK("x").Code())

	notInit := Fail(bridgeerr.ErrNotInitialized)
	assert.True(t, notInit.Failed())
	assert.Equal(t, "Error: Light Client is not initialized", notInit.String())
	assert.Equal(t, "NOT_INITIALIZED", notInit.Code())

	plain := Fail(errors.New("boom"))
	assert.Equal(t, "Error: boom", plain.String())
}

func TestHandle_LastReleaseCloses(t *testing.T) {
	t.Parallel()
	client := newFakeClient("seed")
	closed := 0
	h := newHandle(1, client, zap.NewNop(), func() { closed++ })

	clone := h.Clone()
	h.Release()
	h.Release()
	assert.False(t, client.closed(), "clone still holds a reference")
	assert.False(t, clone.Closed())

	clone.Release()
	assert.True(t, client.closed())
	assert.True(t, h.Closed())
	assert.Equal(t, 1, closed)
	assert.Equal(t, int32(1), client.closes.Load())
}

func TestStore_SetGetClear(t *testing.T) {
	t.Parallel()
	s := NewStore()

	_, ok := s.Get()
	assert.False(t, ok)
	assert.False(t, s.Clear())

	first := newFakeClient("one")
	s.Set(newHandle(1, first, zap.NewNop(), nil))
	assert.True(t, s.Active())

	h, ok := s.Get()
	require.True(t, ok)
	assert.Same(t, Client(first), h.Client())

	second := newFakeClient("two")
	s.Set(newHandle(2, second, zap.NewNop(), nil))
	assert.False(t, first.closed(), "an outstanding clone keeps the replaced client open")

	h.Release()
	assert.True(t, first.closed())

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.ID())
	got.Release()

	assert.True(t, s.Clear())
	assert.True(t, second.closed())
	assert.False(t, s.Active())
}
