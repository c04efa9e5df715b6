package ecu

import (
	"testing"

	"github.com/brutella/can"
)

func TestRouter_DispatchesToExactlyOneHandler(t *testing.T) {
	calls := map[string]int{}
	record := func(name string) HandlerFunc {
		return func(can.Frame) { calls[name]++ }
	}
	r := NewRouter(Handlers{
		Throttle1:      record("throttle1"),
		Throttle2:      record("throttle2"),
		BrakePressure:  record("brake"),
		StartSwitch:    record("switch"),
		ThrottleMin:    record("min"),
		ThrottleMax:    record("max"),
		DriveMode:      record("mode"),
		InverterStatus: record("inverter"),
	})

	tests := []struct {
		id      uint32
		handler string
	}{
		{Throttle1PositionFrameID, "throttle1"},
		{Throttle2PositionFrameID, "throttle2"},
		{BrakePressureFrameID, "brake"},
		{StartSwitchFrameID, "switch"},
		{ThrottleMinFrameID, "min"},
		{ThrottleMaxFrameID, "max"},
		{DriveModeFrameID, "mode"},
		{InternalStatesFrameID, "inverter"},
	}

	for _, tt := range tests {
		for k := range calls {
			delete(calls, k)
		}
		if !r.Route(can.Frame{ID: tt.id}) {
			t.Errorf("0x%03X: expected frame to be routed", tt.id)
		}
		if len(calls) != 1 || calls[tt.handler] != 1 {
			t.Errorf("0x%03X: expected only %s to be called, got %v", tt.id, tt.handler, calls)
		}
	}
}

func TestRouter_IgnoresUnknownIDs(t *testing.T) {
	called := false
	r := NewRouter(Handlers{Throttle1: func(can.Frame) { called = true }})

	for _, id := range []uint32{0x7FF, HealthFrontResponseFrameID, DriveStateFrameID, Throttle2PositionFrameID} {
		if r.Route(can.Frame{ID: id}) {
			t.Errorf("0x%03X: expected frame to be ignored", id)
		}
	}
	if called {
		t.Error("throttle handler should not have been called")
	}
}

func TestIsHealthResponse(t *testing.T) {
	for _, id := range []uint32{HealthFrontResponseFrameID, HealthRearResponseFrameID, HealthThermalResponseFrameID} {
		if !IsHealthResponse(id) {
			t.Errorf("0x%03X should be a health response", id)
		}
	}
	if IsHealthResponse(HealthCheckRequestFrameID) {
		t.Error("the request is not a response")
	}
}
