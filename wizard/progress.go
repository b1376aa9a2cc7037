package wizard

// ProgressAt maps a phase-local position into the global percentage.
// k is the number of steps settled within the phase, n the phase's total.
// The result is floor(start + k/n * (end-start)), clamped into the phase's
// range, so consecutive calls are non-decreasing and k == n lands exactly
// on the phase's range end before the next phase begins.
func ProgressAt(ph Phase, k, n int) int {
	if n <= 0 {
		return ph.ProgressStart
	}
	if k < 0 {
		k = 0
	}
	if k > n {
		k = n
	}
	span := ph.ProgressEnd - ph.ProgressStart
	return ph.ProgressStart + k*span/n
}
