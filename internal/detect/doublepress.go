package detect

import "time"

// DoublePress recognises a key pressed, released and pressed again within
// Window with nothing else pressed in between. Autorepeat of a held key is
// not a second press. It is not safe for concurrent use; feed it from the
// source's handler.
type DoublePress struct {
	Key    Key
	Window time.Duration

	last     time.Time
	released bool
}

// Observe consumes one event and reports whether it completes a double
// press.
func (d *DoublePress) Observe(ev Event) bool {
	kb, ok := ev.(KeyboardEvent)
	if !ok {
		if m, ok := ev.(MouseEvent); ok && m.Status == Pressed {
			d.reset()
		}
		return false
	}
	if kb.Repeat {
		return false
	}
	if kb.Key != d.Key {
		if kb.Status == Pressed {
			d.reset()
		}
		return false
	}
	if kb.Status == Released {
		d.released = !d.last.IsZero()
		return false
	}
	if d.released && kb.At.Sub(d.last) <= d.Window {
		d.reset()
		return true
	}
	d.last, d.released = kb.At, false
	return false
}

func (d *DoublePress) reset() {
	d.last, d.released = time.Time{}, false
}
