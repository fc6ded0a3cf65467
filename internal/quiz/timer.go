package quiz

import "time"

// roundTimer is a cancellable one-shot timer owned by a session or challenge.
// Every state transition that obsoletes a timer must Stop it before mutating
// state; callbacks additionally re-check the entity's stage and epoch, so a
// timer that fires after cancellation is a no-op.
type roundTimer struct {
	t *time.Timer
}

func newRoundTimer(d time.Duration, fn func()) *roundTimer {
	return &roundTimer{t: time.AfterFunc(d, fn)}
}

// Stop disarms the timer. Safe on nil receivers and after firing.
func (rt *roundTimer) Stop() {
	if rt != nil && rt.t != nil {
		rt.t.Stop()
	}
}
