//go:build linux

package detect

// Codes from linux/input-event-codes.h.
var evdevKeys = map[uint16]Key{
	1:   KeyEscape,
	14:  KeyBackspace,
	15:  KeyTab,
	28:  KeyEnter,
	29:  KeyControl,
	42:  KeyShift,
	54:  KeyShift,
	56:  KeyAlt,
	57:  KeySpace,
	58:  KeyCapsLock,
	69:  KeyNumLock,
	87:  KeyF11,
	88:  KeyF12,
	96:  KeyEnter,
	97:  KeyControl,
	100: KeyAlt,
	102: KeyHome,
	103: KeyArrowUp,
	104: KeyPageUp,
	105: KeyArrowLeft,
	106: KeyArrowRight,
	107: KeyEnd,
	108: KeyArrowDown,
	109: KeyPageDown,
	110: KeyInsert,
	111: KeyDelete,
	125: KeyMeta,
	126: KeyMeta,
}

var mouseButtons = map[uint16]MouseButton{
	0x110: ButtonLeft,
	0x111: ButtonRight,
	0x112: ButtonMiddle,
	0x113: ButtonButton1,
	0x114: ButtonButton2,
}

func init() {
	for i := uint16(0); i < 10; i++ {
		evdevKeys[59+i] = KeyF1 + Key(i)
	}
}

func keyFromCode(code uint16) Key {
	if k, ok := evdevKeys[code]; ok {
		return k
	}
	return KeyOther
}

// US layout: unshifted and shifted characters per code.
var evdevRunes = map[uint16][2]string{
	2: {"1", "!"}, 3: {"2", "@"}, 4: {"3", "#"}, 5: {"4", "$"}, 6: {"5", "%"},
	7: {"6", "^"}, 8: {"7", "&"}, 9: {"8", "*"}, 10: {"9", "("}, 11: {"0", ")"},
	12: {"-", "_"}, 13: {"=", "+"},
	26: {"[", "{"}, 27: {"]", "}"},
	39: {";", ":"}, 40: {"'", "\""}, 41: {"`", "~"}, 43: {"\\", "|"},
	51: {",", "<"}, 52: {".", ">"}, 53: {"/", "?"},
	57: {" ", " "},
}

var evdevLetters = map[uint16]string{
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
}

// valueFromCode returns the character a key would type, or "" for keys
// that type nothing.
func valueFromCode(code uint16, mods ModifierSet) string {
	shift := mods.Has(ModShift)
	if l, ok := evdevLetters[code]; ok {
		if shift != mods.Has(ModCapsLock) {
			return string(l[0] - 'a' + 'A')
		}
		return l
	}
	if r, ok := evdevRunes[code]; ok {
		if shift {
			return r[1]
		}
		return r[0]
	}
	return ""
}
