package evaluation

import "math"

const (
	MinScore = 0
	MaxScore = 10
)

// Normalize maps a raw answer onto the common 0-10 scale.
//
// Boolean answers become 10 or 0. Numeric answers are passed through and
// clamped into range. Anything else (a value of the wrong kind, NaN, an
// answer that could not be parsed, an unknown trait kind) yields 0 with
// degraded set, so one bad answer never stops the other traits.
func Normalize(kind Kind, v Value) (score float64, degraded bool) {
	switch kind {
	case KindBoolean:
		b, ok := v.Bool()
		if !ok {
			return MinScore, true
		}
		if b {
			return MaxScore, false
		}
		return MinScore, false
	case KindScore:
		n, ok := v.Number()
		if !ok || math.IsNaN(n) {
			return MinScore, true
		}
		return clamp(n, MinScore, MaxScore), false
	default:
		return MinScore, true
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
