package manager

import (
	"math"
	"time"

	"snake-term/game/types"
)

// SpeedManager shortens the tick interval each time food is eaten.
type SpeedManager struct {
	interval time.Duration
	floor    time.Duration
	decay    float64
}

func NewSpeedManager(initial, floor time.Duration, decay float64) *SpeedManager {
	return &SpeedManager{
		interval: initial,
		floor:    floor,
		decay:    decay,
	}
}

func (sm *SpeedManager) Interval() time.Duration {
	return sm.interval
}

// Tighten applies one decay step and returns the new interval.
func (sm *SpeedManager) Tighten() time.Duration {
	sm.interval = NextInterval(sm.interval, sm.floor, sm.decay)
	return sm.interval
}

// NextInterval is max(floor, round(old*decay)), rounded to
// types.IntervalResolution. Above the floor the result is always strictly
// smaller than old.
func NextInterval(old, floor time.Duration, decay float64) time.Duration {
	if old <= floor {
		return old
	}
	steps := math.Round(float64(old) * decay / float64(types.IntervalResolution))
	next := time.Duration(steps) * types.IntervalResolution
	if next >= old {
		next = old - types.IntervalResolution
	}
	if next < floor {
		next = floor
	}
	return next
}
