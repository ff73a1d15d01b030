//go:build windows

package detect

// Virtual-key codes from winuser.h.
var vkKeys = map[uint32]Key{
	0x08: KeyBackspace,
	0x09: KeyTab,
	0x0D: KeyEnter,
	0x10: KeyShift,
	0x11: KeyControl,
	0x12: KeyAlt,
	0x14: KeyCapsLock,
	0x1B: KeyEscape,
	0x20: KeySpace,
	0x21: KeyPageUp,
	0x22: KeyPageDown,
	0x23: KeyEnd,
	0x24: KeyHome,
	0x25: KeyArrowLeft,
	0x26: KeyArrowUp,
	0x27: KeyArrowRight,
	0x28: KeyArrowDown,
	0x2D: KeyInsert,
	0x2E: KeyDelete,
	0x5B: KeyMeta,
	0x5C: KeyMeta,
	0x90: KeyNumLock,
	0xA0: KeyShift,
	0xA1: KeyShift,
	0xA2: KeyControl,
	0xA3: KeyControl,
	0xA4: KeyAlt,
	0xA5: KeyAlt,
}

func init() {
	for i := uint32(0); i < 12; i++ {
		vkKeys[0x70+i] = KeyF1 + Key(i)
	}
}

func keyFromVK(vk uint32) Key {
	if k, ok := vkKeys[vk]; ok {
		return k
	}
	return KeyOther
}

// US layout: unshifted and shifted characters per OEM key.
var vkRunes = map[uint32][2]string{
	0x20: {" ", " "},
	0xBA: {";", ":"}, 0xBB: {"=", "+"}, 0xBC: {",", "<"}, 0xBD: {"-", "_"},
	0xBE: {".", ">"}, 0xBF: {"/", "?"}, 0xC0: {"`", "~"}, 0xDB: {"[", "{"},
	0xDC: {"\\", "|"}, 0xDD: {"]", "}"}, 0xDE: {"'", "\""},
}

const shiftedDigits = ")!@#$%^&*("

func valueFromVK(vk uint32, mods ModifierSet) string {
	shift := mods.Has(ModShift)
	switch {
	case vk >= 'A' && vk <= 'Z':
		if shift != mods.Has(ModCapsLock) {
			return string(rune(vk))
		}
		return string(rune(vk - 'A' + 'a'))
	case vk >= '0' && vk <= '9':
		if shift {
			return string(shiftedDigits[vk-'0'])
		}
		return string(rune(vk))
	}
	if r, ok := vkRunes[vk]; ok {
		if shift {
			return r[1]
		}
		return r[0]
	}
	return ""
}
