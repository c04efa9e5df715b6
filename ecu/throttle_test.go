package ecu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetChannel_LinearMapping(t *testing.T) {
	th := NewThrottleValidator()
	th.SetChannel(1, defaultThrottleMin)
	th.SetChannel(2, defaultThrottleMax)

	require.Equal(t, 0, th.Calibrated(1))
	require.Equal(t, FullBeansMaxTorque, th.Calibrated(2))
	require.True(t, th.Ready())
}

func TestSetChannel_IgnoresUnknownChannel(t *testing.T) {
	th := NewThrottleValidator()
	th.SetChannel(3, 500)
	require.False(t, th.Ready())
	require.Equal(t, 0, th.Calibrated(3))
}

func TestSetChannel_DegenerateCalibration(t *testing.T) {
	th := NewThrottleValidator()
	th.SetCalibrationMin(500, 500)
	th.SetCalibrationMax(500, 500)
	th.SetChannel(1, 700)
	require.Equal(t, 0, th.Calibrated(1))
}

func TestCheckError_AgreementKeepsCounterZero(t *testing.T) {
	th := NewThrottleValidator()
	for raw := int32(220); raw <= 1000; raw += 60 {
		th.SetChannel(1, raw)
		th.SetChannel(2, raw+100)
		require.Equal(t, ThrottleErrorNone, th.CheckError(), "raw=%d", raw)
		require.Equal(t, 0, th.Mismatches())
	}
}

func TestCheckError_MismatchDebounce(t *testing.T) {
	th := NewThrottleValidator()
	th.SetChannel(1, defaultThrottleMax)
	th.SetChannel(2, defaultThrottleMin+1)

	for i := 1; i < ThrottleMaintainTolerance; i++ {
		require.Equal(t, ThrottleErrorNone, th.CheckError(), "sample %d", i)
		require.Equal(t, i, th.Mismatches())
	}
	require.Equal(t, ThrottleErrorMismatch, th.CheckError())
	require.Equal(t, ThrottleErrorMismatch, th.CheckError())

	// One agreeing sample resets everything.
	th.SetChannel(2, defaultThrottleMax)
	require.Equal(t, ThrottleErrorNone, th.CheckError())
	require.Equal(t, 0, th.Mismatches())
}

func TestCheckError_MismatchResetMidway(t *testing.T) {
	th := NewThrottleValidator()
	for i := 0; i < ThrottleMaintainTolerance-1; i++ {
		th.SetChannel(1, defaultThrottleMax)
		th.SetChannel(2, defaultThrottleMin+1)
		th.CheckError()
	}
	th.SetChannel(2, defaultThrottleMax)
	th.CheckError()

	th.SetChannel(2, defaultThrottleMin+1)
	require.Equal(t, ThrottleErrorNone, th.CheckError())
	require.Equal(t, 1, th.Mismatches())
}

func TestCheckError_Disconnected(t *testing.T) {
	th := NewThrottleValidator()
	th.SetChannel(1, 0)
	th.SetChannel(2, 0)
	require.Equal(t, ThrottleErrorDisconnected, th.CheckError())

	th.SetChannel(1, 500)
	th.SetChannel(2, 0)
	require.Equal(t, ThrottleErrorDisconnected, th.CheckError())
}

func TestCalculateTorque_ColdStart(t *testing.T) {
	th := NewThrottleValidator()
	for i := 0; i < HistorySize-1; i++ {
		th.SetChannel(1, 600)
		th.SetChannel(2, 600)
		require.Equal(t, 0, th.CalculateTorque())
	}
	th.SetChannel(1, 600)
	th.SetChannel(2, 600)
	require.Equal(t, (600-210)*3100/790, th.CalculateTorque())
}

func TestCalculateTorque_NeverNegative(t *testing.T) {
	th := NewThrottleValidator()
	for i := 0; i < HistorySize+2; i++ {
		th.SetChannel(1, 10)
		th.SetChannel(2, 10)
		require.GreaterOrEqual(t, th.CalculateTorque(), 0)
	}
}

func TestCalculateTorque_ClearsPending(t *testing.T) {
	th := NewThrottleValidator()
	th.SetChannel(1, 600)
	require.False(t, th.Ready())
	th.SetChannel(2, 600)
	require.True(t, th.Ready())
	th.CalculateTorque()
	require.False(t, th.Ready())
}

func TestCalculateTorque_CappedByMaxTorque(t *testing.T) {
	th := NewThrottleValidator()
	th.SetMaxTorque(EnduranceMaxTorque)
	for i := 0; i < HistorySize; i++ {
		th.SetChannel(1, 1200)
		th.SetChannel(2, 1200)
		th.CalculateTorque()
	}
	th.SetChannel(1, 1200)
	th.SetChannel(2, 1200)
	require.Equal(t, EnduranceMaxTorque, th.CalculateTorque())
}

func TestCalibrationTakesEffectOnNextSet(t *testing.T) {
	th := NewThrottleValidator()
	th.SetChannel(1, 600)
	before := th.Calibrated(1)

	th.SetCalibrationMin(100, 100)
	th.SetCalibrationMax(600, 600)
	require.Equal(t, before, th.Calibrated(1))

	th.SetChannel(1, 600)
	require.Equal(t, FullBeansMaxTorque, th.Calibrated(1))
	require.Equal(t, CalibrationRange{Min: 100, Max: 600}, th.Calibration(2))
}
