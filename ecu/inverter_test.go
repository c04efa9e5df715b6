package ecu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeInverterStatus(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		want     InverterStatus
		tractive bool
	}{
		{
			name:     "wait with relays closed",
			data:     []byte{4, 0, 0, 0b11, 0, 0, 0, 0},
			want:     InverterStatus{VSM: VSMWait, PrechargeRelay: true, MainRelay: true},
			tractive: true,
		},
		{
			name:     "running and enabled",
			data:     []byte{6, 0, 0, 0b11, 0, 0, 0b01},
			want:     InverterStatus{VSM: VSMMotorRunning, PrechargeRelay: true, MainRelay: true, Enabled: true},
			tractive: true,
		},
		{
			name: "precharge only",
			data: []byte{2, 0, 0, 0b01, 0, 0, 0},
			want: InverterStatus{VSM: VSMPrechargeActive, PrechargeRelay: true},
		},
		{
			name: "locked out",
			data: []byte{4, 0, 0, 0b11, 0, 0, 0b10},
			want: InverterStatus{VSM: VSMWait, PrechargeRelay: true, MainRelay: true, Locked: true},
		},
		{
			name: "fault",
			data: []byte{7, 0, 0, 0b11, 0, 0, 0},
			want: InverterStatus{VSM: VSMFault, PrechargeRelay: true, MainRelay: true},
		},
		{
			name: "shutdown in process",
			data: []byte{14, 0, 0, 0b10, 0, 0, 0},
			want: InverterStatus{VSM: VSMShutdownInProcess, MainRelay: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInverterStatus(makeCANFrame(InternalStatesFrameID, tt.data))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.tractive, got.TractiveActive())
		})
	}
}

func TestDecodeInverterStatus_UnknownVSMFailsClosed(t *testing.T) {
	got, err := DecodeInverterStatus(makeCANFrame(InternalStatesFrameID, []byte{9, 0, 0, 0b11, 0, 0, 0}))
	require.True(t, errors.Is(err, ErrUnknownVSMState))
	require.Equal(t, VSMUnknown, got.VSM)
	require.True(t, got.Locked)
	require.False(t, got.TractiveActive())
}

func TestDecodeInverterStatus_ShortFrameFailsClosed(t *testing.T) {
	got, err := DecodeInverterStatus(makeCANFrame(InternalStatesFrameID, []byte{4, 0, 0, 0b11}))
	require.ErrorIs(t, err, ErrShortFrame)
	require.True(t, got.Locked)
	require.False(t, got.TractiveActive())
}

func TestInternalStatesFrameRoundTrip(t *testing.T) {
	status := InverterStatus{VSM: VSMReady, PrechargeRelay: true, MainRelay: true, Enabled: true}
	got, err := DecodeInverterStatus(InternalStatesFrame(status))
	require.NoError(t, err)
	require.Equal(t, status, got)
}
