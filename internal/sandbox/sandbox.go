// Package sandbox is a terminal playground for the input engine. Keys typed
// in the terminal go to an in-memory text field and through the engine, and
// the candidates are listed below the field.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gdamore/tcell/v2"

	"glyphkey/internal/config"
	"glyphkey/internal/frontend"
	"glyphkey/internal/ime"
	"glyphkey/internal/keyboard"
	"glyphkey/internal/logging"
)

const help = "Tab/Shift+Tab select  Ctrl+Space commit  Ctrl+P pause  Ctrl+L clear  Ctrl+C quit"

var (
	styleTitle    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleText     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleCursor   = tcell.StyleDefault.Reverse(true)
	styleInput    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen)
	styleIdle     = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Sandbox runs an engine against a TextField on a tcell screen.
type Sandbox struct {
	screen tcell.Screen
	engine *ime.Engine
	field  *TextField
	panel  *frontend.Console
	logger *logging.Logger
}

// New builds a sandbox drawing on screen. The screen must be initialized.
func New(screen tcell.Screen, cfg *config.Config, logger *logging.Logger, opts ...ime.EngineOption) (*Sandbox, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Sandbox{
		screen: screen,
		field:  &TextField{},
		panel:  frontend.NewConsole(io.Discard),
		logger: logger.WithComponent("sandbox"),
	}

	opts = append(opts,
		ime.WithLogger(logger),
		ime.WithFrontend(s.panel),
		ime.WithInjector(s.field),
	)
	engine, err := ime.NewEngine(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Engine returns the engine driven by the sandbox.
func (s *Sandbox) Engine() *ime.Engine { return s.engine }

// Field returns the text field.
func (s *Sandbox) Field() *TextField { return s.field }

// Run draws and handles terminal events until ctx is done or the user quits.
func (s *Sandbox) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go s.screen.ChannelEvents(events, quit)

	s.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !s.HandleEvent(ev) {
				return nil
			}
			s.Draw()
		}
	}
}

// HandleEvent applies one terminal event and reports whether the sandbox
// should keep running.
func (s *Sandbox) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return s.handleKey(ev)
	case *tcell.EventResize:
		s.screen.Sync()
	}
	return true
}

func (s *Sandbox) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return false
	case tcell.KeyCtrlP:
		idle := s.engine.ToggleIdle()
		s.logger.Info("idle toggled", "idle", idle)
	case tcell.KeyCtrlL:
		s.engine.Reset()
		s.field.Reset()
	case tcell.KeyCtrlSpace:
		s.report(s.engine.CommitSelected())
	case tcell.KeyTab:
		s.engine.NextPredicate()
	case tcell.KeyBacktab:
		s.engine.PreviousPredicate()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		s.field.Backspace()
		s.report(s.engine.HandleKey(keyboard.KeyDown(keyboard.Named(keyboard.Backspace))))
	case tcell.KeyRune:
		r := string(ev.Rune())
		s.field.Type(r)
		s.report(s.engine.HandleKey(keyboard.KeyDown(keyboard.Character(r))))
	default:
		if named, ok := namedKeys[ev.Key()]; ok {
			s.report(s.engine.HandleKey(keyboard.KeyDown(keyboard.Named(named))))
		}
	}
	return true
}

var namedKeys = map[tcell.Key]keyboard.NamedKey{
	tcell.KeyEnter:  keyboard.Enter,
	tcell.KeyEscape: keyboard.Escape,
	tcell.KeyLeft:   keyboard.ArrowLeft,
	tcell.KeyRight:  keyboard.ArrowRight,
	tcell.KeyUp:     keyboard.ArrowUp,
	tcell.KeyDown:   keyboard.ArrowDown,
	tcell.KeyHome:   keyboard.Home,
	tcell.KeyEnd:    keyboard.End,
	tcell.KeyPgUp:   keyboard.PageUp,
	tcell.KeyPgDn:   keyboard.PageDown,
	tcell.KeyInsert: keyboard.Insert,
	tcell.KeyDelete: keyboard.Delete,
}

func (s *Sandbox) report(err error) {
	if err != nil && !errors.Is(err, ime.ErrIdle) {
		s.logger.Error("key handling failed", "error", err)
	}
}

// Draw renders the field and the candidates.
func (s *Sandbox) Draw() {
	s.screen.Clear()
	width, _ := s.screen.Size()

	s.print(0, 0, "glyphkey sandbox", styleTitle)
	if s.engine.Idle() {
		s.print(18, 0, "[paused]", styleIdle)
	}
	s.print(0, 1, help, styleHelp)

	text := []rune(s.field.String())
	x, y := 0, 3
	for _, r := range text {
		if x >= width {
			x, y = 0, y+1
		}
		s.screen.SetContent(x, y, r, nil, styleText)
		x++
	}
	s.screen.SetContent(x, y, ' ', nil, styleCursor)

	y += 2
	s.print(0, y, fmt.Sprintf("input: %s", s.panel.Input()), styleInput)
	for i, entry := range s.panel.Page() {
		style := styleText
		if strings.HasPrefix(entry, "*") {
			style = styleSelected
		}
		s.print(2, y+1+i, strings.TrimSpace(entry), style)
	}

	s.screen.Show()
}

func (s *Sandbox) print(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		if r == '\t' {
			r = ' '
		}
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// Close ends the engine session.
func (s *Sandbox) Close() error {
	return s.engine.Close()
}
