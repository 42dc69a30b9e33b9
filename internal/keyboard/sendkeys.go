package keyboard

// WebDriver private-use code points understood by SendKeys.
const (
	KeyBackspace = '\uE003'
	KeyTab       = '\uE004'
	KeyReturn    = '\uE006'
	KeyEnter     = '\uE007'
	KeyShift     = '\uE008'
	KeyControl   = '\uE009'
	KeyAlt       = '\uE00A'
	KeyPause     = '\uE00B'
	KeyEscape    = '\uE00C'
	KeySpace     = '\uE00D'
	KeyLeft      = '\uE012'
	KeyUpArrow   = '\uE013'
	KeyRight     = '\uE014'
	KeyDownArrow = '\uE015'
	KeyInsert    = '\uE016'
	KeyDelete    = '\uE017'
)

var webdriverKeys = map[rune]Key{
	KeyBackspace: Named(Backspace),
	KeyTab:       Named(Tab),
	KeyReturn:    Named(Enter),
	KeyEnter:     Named(Enter),
	KeyShift:     Named(Shift),
	KeyControl:   Named(Control),
	KeyAlt:       Named(Alt),
	KeyPause:     Named(Pause),
	KeyEscape:    Named(Escape),
	KeySpace:     Character(" "),
	KeyLeft:      Named(ArrowLeft),
	KeyUpArrow:   Named(ArrowUp),
	KeyRight:     Named(ArrowRight),
	KeyDownArrow: Named(ArrowDown),
	KeyInsert:    Named(Insert),
	KeyDelete:    Named(Delete),
}

// SendKeys expands s into a down and up event per rune, the way a WebDriver
// client types text. Code points in the WebDriver private-use range map to
// named keys.
func SendKeys(s string) []Event {
	events := make([]Event, 0, 2*len(s))
	for _, r := range s {
		key, ok := webdriverKeys[r]
		if !ok {
			key = Character(string(r))
		}
		events = append(events, KeyDown(key), KeyUp(key))
	}
	return events
}
