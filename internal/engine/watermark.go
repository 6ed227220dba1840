package engine

import "time"

// Watermark is the shared last-seen-event-time cursor. Both channels
// advance it; only the poll channel reads it as a lower bound. It only
// moves forward, which makes the dual writers safe by construction.
// Owned by the engine loop.
type Watermark struct {
	t time.Time
}

// Advance moves the cursor forward to ts if ts is later. Returns true
// if the cursor moved.
func (w *Watermark) Advance(ts time.Time) bool {
	if ts.After(w.t) {
		w.t = ts
		return true
	}
	return false
}

// Time returns the current cursor position.
func (w *Watermark) Time() time.Time {
	return w.t
}

// IsZero reports whether the cursor has never been advanced.
func (w *Watermark) IsZero() bool {
	return w.t.IsZero()
}
