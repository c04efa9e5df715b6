package ecu

import "github.com/brutella/can"

// HandlerFunc handles one routed frame.
type HandlerFunc func(frame can.Frame)

// Handlers is the fixed set of update handlers the router dispatches to. A
// nil handler drops frames with that ID.
type Handlers struct {
	Throttle1      HandlerFunc
	Throttle2      HandlerFunc
	BrakePressure  HandlerFunc
	StartSwitch    HandlerFunc
	ThrottleMin    HandlerFunc
	ThrottleMax    HandlerFunc
	DriveMode      HandlerFunc
	InverterStatus HandlerFunc
}

// Router maps a received frame to exactly one handler by ID.
type Router struct {
	routes map[uint32]HandlerFunc
}

func NewRouter(h Handlers) *Router {
	r := &Router{routes: make(map[uint32]HandlerFunc, 8)}
	r.add(Throttle1PositionFrameID, h.Throttle1)
	r.add(Throttle2PositionFrameID, h.Throttle2)
	r.add(BrakePressureFrameID, h.BrakePressure)
	r.add(StartSwitchFrameID, h.StartSwitch)
	r.add(ThrottleMinFrameID, h.ThrottleMin)
	r.add(ThrottleMaxFrameID, h.ThrottleMax)
	r.add(DriveModeFrameID, h.DriveMode)
	r.add(InternalStatesFrameID, h.InverterStatus)
	return r
}

func (r *Router) add(id uint32, h HandlerFunc) {
	if h != nil {
		r.routes[id] = h
	}
}

// Route dispatches the frame and reports whether a handler took it. Unknown
// IDs are ignored.
func (r *Router) Route(frame can.Frame) bool {
	h, ok := r.routes[frame.ID]
	if !ok {
		return false
	}
	h(frame)
	return true
}

// IsHealthResponse reports whether the ID belongs to a data collector's
// health-check response.
func IsHealthResponse(id uint32) bool {
	switch id {
	case HealthFrontResponseFrameID, HealthRearResponseFrameID, HealthThermalResponseFrameID:
		return true
	}
	return false
}

// HealthResponders is the number of data collectors expected to answer.
const HealthResponders = 3
