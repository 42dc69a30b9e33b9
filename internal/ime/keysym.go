package ime

import "glyphkey/internal/keyboard"

// IBus key event state masks.
const (
	IBusShiftMask   uint32 = 1 << 0
	IBusLockMask    uint32 = 1 << 1
	IBusControlMask uint32 = 1 << 2
	IBusMod1Mask    uint32 = 1 << 3 // Alt
	IBusMod4Mask    uint32 = 1 << 6 // Super/Meta
	IBusReleaseMask uint32 = 1 << 30
)

// X11 key symbols for the keys the engine tells apart.
const (
	XKBackSpace       = 0xff08
	XKTab             = 0xff09
	XKReturn          = 0xff0d
	XKPause           = 0xff13
	XKScrollLock      = 0xff14
	XKEscape          = 0xff1b
	XKHome            = 0xff50
	XKLeft            = 0xff51
	XKUp              = 0xff52
	XKRight           = 0xff53
	XKDown            = 0xff54
	XKPageUp          = 0xff55
	XKPageDown        = 0xff56
	XKEnd             = 0xff57
	XKInsert          = 0xff63
	XKNumLock         = 0xff7f
	XKKPEnter         = 0xff8d
	XKShiftL          = 0xffe1
	XKShiftR          = 0xffe2
	XKControlL        = 0xffe3
	XKControlR        = 0xffe4
	XKCapsLock        = 0xffe5
	XKAltL            = 0xffe9
	XKAltR            = 0xffea
	XKSuperL          = 0xffeb
	XKSuperR          = 0xffec
	XKISOLevel3Shift  = 0xfe03
	XKDelete          = 0xffff
	xkUnicodeOffset   = 0x01000000
	xkLatin1Printable = 0xa0
)

var namedKeysyms = map[uint32]keyboard.NamedKey{
	XKBackSpace:      keyboard.Backspace,
	XKTab:            keyboard.Tab,
	XKReturn:         keyboard.Enter,
	XKKPEnter:        keyboard.Enter,
	XKPause:          keyboard.Pause,
	XKScrollLock:     keyboard.ScrollLock,
	XKEscape:         keyboard.Escape,
	XKHome:           keyboard.Home,
	XKLeft:           keyboard.ArrowLeft,
	XKUp:             keyboard.ArrowUp,
	XKRight:          keyboard.ArrowRight,
	XKDown:           keyboard.ArrowDown,
	XKPageUp:         keyboard.PageUp,
	XKPageDown:       keyboard.PageDown,
	XKEnd:            keyboard.End,
	XKInsert:         keyboard.Insert,
	XKNumLock:        keyboard.NumLock,
	XKShiftL:         keyboard.Shift,
	XKShiftR:         keyboard.Shift,
	XKControlL:       keyboard.Control,
	XKControlR:       keyboard.Control,
	XKCapsLock:       keyboard.CapsLock,
	XKAltL:           keyboard.Alt,
	XKAltR:           keyboard.Alt,
	XKSuperL:         keyboard.Super,
	XKSuperR:         keyboard.Super,
	XKISOLevel3Shift: keyboard.AltGraph,
	XKDelete:         keyboard.Delete,
}

// KeyvalToEvent converts an X11 keysym and IBus modifier state to a key
// event. A character typed with Control or Alt held is a shortcut and comes
// out as an Unidentified key.
func KeyvalToEvent(keyval, state uint32) keyboard.Event {
	var key keyboard.Key
	if named, ok := namedKeysyms[keyval]; ok {
		key = keyboard.Named(named)
	} else if r := keyvalToRune(keyval); r != 0 && state&(IBusControlMask|IBusMod1Mask) == 0 {
		key = keyboard.Character(string(r))
	} else {
		key = keyboard.Named(keyboard.Unidentified)
	}

	if state&IBusReleaseMask != 0 {
		return keyboard.KeyUp(key)
	}
	return keyboard.KeyDown(key)
}

// keyvalToRune converts X11 keysym to Unicode rune.
func keyvalToRune(keyval uint32) rune {
	// Direct Unicode mapping for Latin-1 range
	if keyval >= 0x20 && keyval <= 0x7e {
		return rune(keyval)
	}

	// Extended Latin (ISO 8859-1)
	if keyval >= xkLatin1Printable && keyval <= 0xff {
		return rune(keyval)
	}

	// Unicode keysyms (0x01000000 + codepoint)
	if keyval > xkUnicodeOffset && keyval <= xkUnicodeOffset+0x10ffff {
		return rune(keyval - xkUnicodeOffset)
	}

	return 0
}
