package main

import (
	"testing"

	"vcu-service/canbus"

	"github.com/stretchr/testify/require"
)

func TestIPCRx_HandleMessage(t *testing.T) {
	motor := canbus.NewLoopback(4)
	data := canbus.NewLoopback(4)
	logger, _ := newObservedLogger(LogLevelDebug)
	rx := &IPCRx{
		log: logger,
		buses: map[string]frameInjector{
			ipcInjectMotorChannel: motor,
			ipcInjectDataChannel:  data,
		},
	}

	rx.handleMessage(ipcInjectDataChannel, "103#01")
	rx.handleMessage(ipcInjectMotorChannel, "0AA#0500000300000100")
	rx.handleMessage(ipcInjectDataChannel, "garbage")
	rx.handleMessage("vehicle", "103#01")

	f, ok := data.TryReceive()
	require.True(t, ok)
	require.Equal(t, uint32(0x103), f.ID)
	_, ok = data.TryReceive()
	require.False(t, ok)

	f, ok = motor.TryReceive()
	require.True(t, ok)
	require.Equal(t, uint32(0x0AA), f.ID)
	require.Equal(t, uint8(8), f.Length)
	require.Equal(t, byte(5), f.Data[0])
}
