package main

import (
	"context"
	"testing"

	"vcu-service/ecu"

	"github.com/stretchr/testify/require"
)

func TestDiag_ReportFault(t *testing.T) {
	client, _ := newTestRedis(t)
	logger, _ := newObservedLogger(LogLevelDebug)
	d := NewDiag(logger, client)
	ctx := context.Background()

	require.NoError(t, d.ReportFault(ecu.FaultBrakeDisconnected))
	require.NoError(t, d.ReportFault(ecu.FaultBrakeDisconnected))
	require.NoError(t, d.ReportFault(ecu.FaultStartFault))

	members, err := client.SMembers(ctx, diagFaultSetKey).Result()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"3", "4"}, members)
	require.Equal(t, []string{"3", "3", "4"}, streamCodes(t, client))

	msgs, err := client.XRange(ctx, diagEventStream, "-", "+").Result()
	require.NoError(t, err)
	require.Equal(t, "Brake pressure sensor disconnected", msgs[0].Values["description"])
	require.Equal(t, "critical", msgs[0].Values["severity"])
	require.Equal(t, "warning", msgs[2].Values["severity"])

	require.Error(t, d.ReportFault(ecu.FaultCode(42)))
	require.Error(t, d.ReportFault(ecu.FaultNone))
}

func TestDiag_ClearFaults(t *testing.T) {
	client, _ := newTestRedis(t)
	logger, _ := newObservedLogger(LogLevelDebug)
	d := NewDiag(logger, client)
	ctx := context.Background()

	require.NoError(t, d.ClearFaults())
	require.Empty(t, streamCodes(t, client))

	require.NoError(t, d.ReportFault(ecu.FaultThrottleMismatch))
	require.NoError(t, d.ClearFaults())

	n, err := client.SCard(ctx, diagFaultSetKey).Result()
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, []string{"1", "-1"}, streamCodes(t, client))

	require.NoError(t, d.ClearFaults())
	require.Equal(t, []string{"1", "-1"}, streamCodes(t, client))
}

func TestDiag_ResetFaults(t *testing.T) {
	client, _ := newTestRedis(t)
	logger, _ := newObservedLogger(LogLevelDebug)
	ctx := context.Background()
	require.NoError(t, client.SAdd(ctx, diagFaultSetKey, 2, 3).Err())

	d := NewDiag(logger, client)
	require.NoError(t, d.ResetFaults())

	exists, err := client.Exists(ctx, diagFaultSetKey).Result()
	require.NoError(t, err)
	require.Zero(t, exists)

	// Faults from the previous run are not replayed as cleared.
	require.NoError(t, d.ClearFaults())
	require.Empty(t, streamCodes(t, client))
}
