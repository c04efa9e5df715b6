package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, srv
}

func streamCodes(t *testing.T, client *redis.Client) []string {
	t.Helper()
	msgs, err := client.XRange(context.Background(), diagEventStream, "-", "+").Result()
	require.NoError(t, err)
	codes := make([]string, 0, len(msgs))
	for _, m := range msgs {
		require.Equal(t, diagGroupName, m.Values["group"])
		codes = append(codes, m.Values["code"].(string))
	}
	return codes
}
