package detect

import (
	"fmt"
	"strings"
	"time"
)

// Event is one input event observed by a Source. The set of variants is
// closed: KeyboardEvent and MouseEvent.
type Event interface {
	// Time is when the OS observed the event.
	Time() time.Time
	isEvent()
}

// Status tells whether a key or button went down or up.
type Status int

const (
	Pressed Status = iota
	Released
)

func (s Status) String() string {
	if s == Released {
		return "released"
	}
	return "pressed"
}

// Key identifies the keys snipd reacts to. Everything else is KeyOther and
// is described by the raw code and, for printable keys, the value.
type Key int

const (
	KeyOther Key = iota

	KeyAlt
	KeyCapsLock
	KeyControl
	KeyMeta
	KeyNumLock
	KeyShift

	KeyEnter
	KeyTab
	KeySpace

	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyArrowUp
	KeyEnd
	KeyHome
	KeyPageDown
	KeyPageUp

	KeyInsert
	KeyDelete
	KeyEscape
	KeyBackspace

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[Key]string{
	KeyOther:      "other",
	KeyAlt:        "alt",
	KeyCapsLock:   "capslock",
	KeyControl:    "ctrl",
	KeyMeta:       "meta",
	KeyNumLock:    "numlock",
	KeyShift:      "shift",
	KeyEnter:      "enter",
	KeyTab:        "tab",
	KeySpace:      "space",
	KeyArrowDown:  "down",
	KeyArrowLeft:  "left",
	KeyArrowRight: "right",
	KeyArrowUp:    "up",
	KeyEnd:        "end",
	KeyHome:       "home",
	KeyPageDown:   "pagedown",
	KeyPageUp:     "pageup",
	KeyInsert:     "insert",
	KeyDelete:     "delete",
	KeyEscape:     "esc",
	KeyBackspace:  "backspace",
}

func init() {
	for i := 0; i < 12; i++ {
		keyNames[KeyF1+Key(i)] = fmt.Sprintf("f%d", i+1)
	}
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// ParseKey returns the key with the given name, as used in configuration
// ("shift", "ctrl", "f12", ...).
func ParseKey(name string) (Key, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "control":
		return KeyControl, nil
	case "escape":
		return KeyEscape, nil
	case "super", "cmd", "win":
		return KeyMeta, nil
	}
	for k, n := range keyNames {
		if n == lower && k != KeyOther {
			return k, nil
		}
	}
	return KeyOther, fmt.Errorf("unknown key %q", name)
}

// IsModifier reports whether k contributes to a ModifierSet.
func (k Key) IsModifier() bool {
	return modifierFor(k) != 0
}

// Modifier is one bit of a ModifierSet.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	ModMeta
	ModCapsLock
	ModNumLock
)

// ModifierSet is the set of modifiers active when an event was observed.
type ModifierSet uint8

// Has reports whether m is in the set.
func (s ModifierSet) Has(m Modifier) bool { return s&ModifierSet(m) != 0 }

func (s ModifierSet) String() string {
	names := []struct {
		m    Modifier
		name string
	}{
		{ModShift, "shift"}, {ModControl, "ctrl"}, {ModAlt, "alt"},
		{ModMeta, "meta"}, {ModCapsLock, "capslock"}, {ModNumLock, "numlock"},
	}
	var parts []string
	for _, n := range names {
		if s.Has(n.m) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "+")
}

func modifierFor(k Key) Modifier {
	switch k {
	case KeyShift:
		return ModShift
	case KeyControl:
		return ModControl
	case KeyAlt:
		return ModAlt
	case KeyMeta:
		return ModMeta
	case KeyCapsLock:
		return ModCapsLock
	case KeyNumLock:
		return ModNumLock
	}
	return 0
}

// KeyboardEvent is a key press or release. Repeat marks a Pressed event
// generated by autorepeat while the key is held.
type KeyboardEvent struct {
	Key       Key
	Code      uint32
	Value     string
	Status    Status
	Repeat    bool
	Modifiers ModifierSet
	At        time.Time
}

func (e KeyboardEvent) Time() time.Time { return e.At }
func (KeyboardEvent) isEvent()          {}

func (e KeyboardEvent) String() string {
	return fmt.Sprintf("keyboard %s %s code=%d value=%q mods=%s", e.Key, e.Status, e.Code, e.Value, e.Modifiers)
}

// MouseButton identifies a mouse button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota + 1
	ButtonRight
	ButtonMiddle
	ButtonButton1
	ButtonButton2
)

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonButton1:
		return "button1"
	case ButtonButton2:
		return "button2"
	}
	return "unknown"
}

// MouseEvent is a mouse button press or release.
type MouseEvent struct {
	Button MouseButton
	Status Status
	At     time.Time
}

func (e MouseEvent) Time() time.Time { return e.At }
func (MouseEvent) isEvent()          {}

func (e MouseEvent) String() string {
	return fmt.Sprintf("mouse %s %s", e.Button, e.Status)
}

// modTracker folds key events into the current modifier set. CapsLock and
// NumLock toggle on press; the others are held.
type modTracker struct {
	held    ModifierSet
	toggled ModifierSet
}

func (t *modTracker) apply(k Key, status Status) ModifierSet {
	m := modifierFor(k)
	switch {
	case m == 0:
	case m == ModCapsLock || m == ModNumLock:
		if status == Pressed {
			t.toggled ^= ModifierSet(m)
		}
	case status == Pressed:
		t.held |= ModifierSet(m)
	default:
		t.held &^= ModifierSet(m)
	}
	return t.held | t.toggled
}
