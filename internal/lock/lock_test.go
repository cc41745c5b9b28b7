package lock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutAddrIsNop(t *testing.T) {
	l, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, l)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.NoError(t, release(context.Background()))
	assert.NoError(t, l.Close())
}

func TestNewUnreachableRedis(t *testing.T) {
	_, err := New(context.Background(), Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
