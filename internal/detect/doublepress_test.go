package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDoublePress(t *testing.T) {
	base := time.Unix(100, 0)
	press := func(k Key, ms int) Event {
		return KeyboardEvent{Key: k, Status: Pressed, At: base.Add(time.Duration(ms) * time.Millisecond)}
	}
	release := func(k Key, ms int) Event {
		return KeyboardEvent{Key: k, Status: Released, At: base.Add(time.Duration(ms) * time.Millisecond)}
	}

	repeat := func(k Key, ms int) Event {
		return KeyboardEvent{Key: k, Status: Pressed, Repeat: true, At: base.Add(time.Duration(ms) * time.Millisecond)}
	}

	tests := []struct {
		name   string
		events []Event
		want   []bool
	}{
		{
			name:   "within window",
			events: []Event{press(KeyAlt, 0), release(KeyAlt, 50), press(KeyAlt, 200)},
			want:   []bool{false, false, true},
		},
		{
			name:   "too slow",
			events: []Event{press(KeyAlt, 0), release(KeyAlt, 50), press(KeyAlt, 400), release(KeyAlt, 450), press(KeyAlt, 500)},
			want:   []bool{false, false, false, false, true},
		},
		{
			name:   "autorepeat is not a second press",
			events: []Event{press(KeyAlt, 0), repeat(KeyAlt, 30), repeat(KeyAlt, 60), release(KeyAlt, 90)},
			want:   []bool{false, false, false, false},
		},
		{
			name:   "held key then tap",
			events: []Event{press(KeyAlt, 0), repeat(KeyAlt, 30), release(KeyAlt, 60), press(KeyAlt, 150)},
			want:   []bool{false, false, false, true},
		},
		{
			name:   "press without release",
			events: []Event{press(KeyAlt, 0), press(KeyAlt, 100)},
			want:   []bool{false, false},
		},
		{
			name:   "other key released in between",
			events: []Event{press(KeyAlt, 0), release(KeyAlt, 20), release(KeyOther, 40), press(KeyAlt, 100)},
			want:   []bool{false, false, false, true},
		},
		{
			name:   "other key in between",
			events: []Event{press(KeyAlt, 0), release(KeyAlt, 20), press(KeyOther, 50), press(KeyAlt, 100)},
			want:   []bool{false, false, false, false},
		},
		{
			name:   "click in between",
			events: []Event{press(KeyAlt, 0), release(KeyAlt, 20), MouseEvent{Button: ButtonLeft, Status: Pressed}, press(KeyAlt, 100)},
			want:   []bool{false, false, false, false},
		},
		{
			name:   "triple press fires once",
			events: []Event{press(KeyAlt, 0), release(KeyAlt, 50), press(KeyAlt, 100), release(KeyAlt, 150), press(KeyAlt, 200)},
			want:   []bool{false, false, true, false, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &DoublePress{Key: KeyAlt, Window: 300 * time.Millisecond}
			for i, ev := range tt.events {
				assert.Equal(t, tt.want[i], d.Observe(ev), "event %d", i)
			}
		})
	}
}
