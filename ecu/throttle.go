package ecu

const (
	// ThrottleErrorTolerance is the largest calibrated difference between the
	// two channels still counted as agreement.
	ThrottleErrorTolerance = 1600
	// ThrottleMaintainTolerance is the number of consecutive disagreements
	// before a mismatch is reported.
	ThrottleMaintainTolerance = 20

	ThrottleErrorNone         = 0
	ThrottleErrorMismatch     = 1
	ThrottleErrorDisconnected = 2

	// HistorySize is the depth of the torque smoothing window.
	HistorySize = 4

	defaultThrottleMin = 210
	defaultThrottleMax = 1000
)

// CalibrationRange is the raw sensor span mapped onto [0, max torque].
type CalibrationRange struct {
	Min int32
	Max int32
}

// TorqueHistory is the smoothing window. Index 0 is the newest sample.
type TorqueHistory [HistorySize]int

// Push drops the oldest sample and returns the average of the window, or 0
// while any slot is still empty.
func (h *TorqueHistory) Push(torque int) int {
	copy(h[1:], h[:HistorySize-1])
	h[0] = torque

	sum := 0
	for _, v := range h {
		if v == 0 {
			return 0
		}
		sum += v
	}
	return sum / HistorySize
}

// ThrottleValidator cross-checks the two throttle position sensors and turns
// them into a smoothed torque request.
type ThrottleValidator struct {
	raw         [2]int32
	calibrated  [2]int
	calibration [2]CalibrationRange
	maxTorque   int
	history     TorqueHistory
	mismatches  int
	pending     [2]bool
}

func NewThrottleValidator() *ThrottleValidator {
	return &ThrottleValidator{
		calibration: [2]CalibrationRange{
			{Min: defaultThrottleMin, Max: defaultThrottleMax},
			{Min: defaultThrottleMin, Max: defaultThrottleMax},
		},
		maxTorque: FullBeansMaxTorque,
	}
}

// SetChannel stores a raw reading for channel 1 or 2 and marks it updated.
// Other channel numbers are ignored.
func (t *ThrottleValidator) SetChannel(channel int, raw int32) {
	if channel != 1 && channel != 2 {
		return
	}
	i := channel - 1
	t.raw[i] = raw
	t.pending[i] = true
	t.calibrated[i] = mapRange(int(raw), int(t.calibration[i].Min), int(t.calibration[i].Max), 0, t.maxTorque)
}

// Ready reports whether both channels were updated since the last torque
// computation.
func (t *ThrottleValidator) Ready() bool {
	return t.pending[0] && t.pending[1]
}

// CheckError updates the mismatch counter and returns one of the
// ThrottleError codes. A sustained mismatch takes precedence over a
// disconnected sensor.
func (t *ThrottleValidator) CheckError() int {
	if abs(t.calibrated[0]-t.calibrated[1]) < ThrottleErrorTolerance {
		t.mismatches = 0
	} else {
		t.mismatches++
	}

	if t.mismatches >= ThrottleMaintainTolerance {
		return ThrottleErrorMismatch
	}
	if t.raw[0] == 0 || t.raw[1] == 0 {
		return ThrottleErrorDisconnected
	}
	return ThrottleErrorNone
}

// CalculateTorque averages both channels through the smoothing window and
// clears the pending flags.
func (t *ThrottleValidator) CalculateTorque() int {
	torque := t.history.Push((t.calibrated[0] + t.calibrated[1]) / 2)
	t.pending = [2]bool{}

	if torque < 0 {
		return 0
	}
	if torque > t.maxTorque {
		return t.maxTorque
	}
	return torque
}

func (t *ThrottleValidator) SetCalibrationMin(v1, v2 int32) {
	t.calibration[0].Min = v1
	t.calibration[1].Min = v2
}

func (t *ThrottleValidator) SetCalibrationMax(v1, v2 int32) {
	t.calibration[0].Max = v1
	t.calibration[1].Max = v2
}

func (t *ThrottleValidator) SetMaxTorque(v int) {
	t.maxTorque = v
}

func (t *ThrottleValidator) MaxTorque() int {
	return t.maxTorque
}

func (t *ThrottleValidator) Mismatches() int {
	return t.mismatches
}

func (t *ThrottleValidator) Calibrated(channel int) int {
	if channel != 1 && channel != 2 {
		return 0
	}
	return t.calibrated[channel-1]
}

func (t *ThrottleValidator) Calibration(channel int) CalibrationRange {
	if channel != 1 && channel != 2 {
		return CalibrationRange{}
	}
	return t.calibration[channel-1]
}

// mapRange is an integer linear re-mapping. It does not clamp.
func mapRange(x, inMin, inMax, outMin, outMax int) int {
	if inMax == inMin {
		return outMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
