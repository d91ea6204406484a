package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), Config{
		Host:     mr.Host(),
		Port:     mr.Port(),
		PoolSize: 2,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	assert.NoError(t, client.Close())
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err := NewClient(context.Background(), Config{Host: host, Port: port, MaxRetries: -1}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
