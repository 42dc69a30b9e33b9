//go:build linux

package ime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"glyphkey/internal/config"
	"glyphkey/internal/frontend"
	"glyphkey/internal/keyboard"
	"glyphkey/internal/logging"
	"glyphkey/internal/preprocessor"
)

// IBus D-Bus constants
const (
	IBusService          = "org.freedesktop.IBus"
	IBusFactoryPath      = "/org/freedesktop/IBus/Factory"
	IBusFactoryInterface = "org.freedesktop.IBus.Factory"
	IBusEngineInterface  = "org.freedesktop.IBus.Engine"
	GlyphkeyBusName      = "org.freedesktop.IBus.Glyphkey"
	GlyphkeyEngineName   = "glyphkey"
)

// Bus is the part of *dbus.Conn the adapter needs.
type Bus interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	Export(v interface{}, path dbus.ObjectPath, iface string) error
}

// ibusText is the serialized form of an IBusText.
type ibusText struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	Attrs       dbus.Variant
}

type ibusAttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

func newIBusText(s string) dbus.Variant {
	attrs := ibusAttrList{
		Name:        "IBusAttrList",
		Attachments: map[string]dbus.Variant{},
		Attributes:  []dbus.Variant{},
	}
	return dbus.MakeVariant(ibusText{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        s,
		Attrs:       dbus.MakeVariant(attrs),
	})
}

// IBusEngine exports an Engine as an org.freedesktop.IBus.Engine object.
//
// Printable keys and Backspace are consumed and applied by the adapter
// itself, so that the commands replayed afterwards reach the client in
// order. Every other key is passed through. The bus dispatches each call on
// its own goroutine, so key handling is serialized by keyMu: the echo, the
// engine update and the replayed commands of one key land before the next
// key is looked at.
type IBusEngine struct {
	engine *Engine
	bus    Bus
	path   dbus.ObjectPath
	logger *logging.Logger

	keyMu sync.Mutex

	mu      sync.Mutex
	enabled bool
	focused bool

	keystrokes atomic.Uint64
}

// NewIBusEngine builds an engine from cfg whose commands are emitted as
// signals of the object at path. Candidates go to the debug log.
func NewIBusEngine(cfg *config.Config, bus Bus, path dbus.ObjectPath, logger *logging.Logger, opts ...EngineOption) (*IBusEngine, error) {
	if logger == nil {
		logger = logging.Default()
	}
	ib := &IBusEngine{bus: bus, path: path, logger: logger.WithComponent("ibus")}

	opts = append([]EngineOption{
		WithLogger(logger),
		WithFrontend(frontend.NewConsole(logWriter{ib.logger})),
	}, opts...)
	opts = append(opts, WithInjector(ib))

	engine, err := NewEngine(cfg, opts...)
	if err != nil {
		return nil, err
	}
	ib.engine = engine
	return ib, nil
}

// Engine returns the wrapped engine.
func (e *IBusEngine) Engine() *Engine { return e.engine }

// Path returns the object path the engine emits signals on.
func (e *IBusEngine) Path() dbus.ObjectPath { return e.path }

// Keystrokes returns the number of key presses handled.
func (e *IBusEngine) Keystrokes() uint64 { return e.keystrokes.Load() }

// Inject replays cmd as IBus signals.
func (e *IBusEngine) Inject(cmd preprocessor.Command) error {
	switch cmd.Kind {
	case preprocessor.Delete:
		return e.deleteBefore(1)
	case preprocessor.CommitText:
		return e.commit(cmd.Text)
	default:
		return nil
	}
}

func (e *IBusEngine) commit(text string) error {
	return e.bus.Emit(e.path, IBusEngineInterface+".CommitText", newIBusText(text))
}

func (e *IBusEngine) deleteBefore(n uint32) error {
	return e.bus.Emit(e.path, IBusEngineInterface+".DeleteSurroundingText", -int32(n), n)
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass through.
func (e *IBusEngine) ProcessKeyEvent(keyval, keycode, state uint32) (bool, *dbus.Error) {
	e.mu.Lock()
	enabled := e.enabled
	e.mu.Unlock()
	if !enabled {
		return false, nil
	}

	e.keyMu.Lock()
	defer e.keyMu.Unlock()

	ev := KeyvalToEvent(keyval, state)
	if ev.State != keyboard.Down {
		return false, nil
	}
	e.keystrokes.Add(1)

	switch {
	case ev.Key.Is(keyboard.Pause):
		idle := e.engine.ToggleIdle()
		e.logger.Info("idle toggled", "idle", idle)
		return true, nil

	case e.engine.Idle():
		return false, nil

	case keyval == ' ' && state&IBusControlMask != 0:
		if err := e.engine.CommitSelected(); err != nil {
			e.logger.Error("commit selected failed", "error", err)
		}
		return true, nil

	case ev.Key.IsCharacter():
		if err := e.commit(ev.Key.Char); err != nil {
			e.logger.Error("echo failed", "error", err)
			return false, nil
		}
		e.handle(ev)
		return true, nil

	case ev.Key.Is(keyboard.Backspace):
		if err := e.deleteBefore(1); err != nil {
			e.logger.Error("delete failed", "error", err)
			return false, nil
		}
		e.handle(ev)
		return true, nil

	default:
		e.handle(ev)
		return false, nil
	}
}

func (e *IBusEngine) handle(ev keyboard.Event) {
	if err := e.engine.HandleKey(ev); err != nil && !errors.Is(err, ErrIdle) {
		e.logger.Error("key handling failed", "key", ev.Key.String(), "error", err)
	}
}

// FocusIn is called when the engine gains input focus.
func (e *IBusEngine) FocusIn() *dbus.Error {
	e.mu.Lock()
	e.focused = true
	e.mu.Unlock()
	e.logger.Debug("focus in")
	return nil
}

// FocusOut is called when the engine loses input focus. The typed code is
// forgotten since the next field has nothing to do with it.
func (e *IBusEngine) FocusOut() *dbus.Error {
	e.mu.Lock()
	e.focused = false
	e.mu.Unlock()
	e.reset()
	e.logger.Debug("focus out")
	return nil
}

// Enable is called when the engine is enabled.
func (e *IBusEngine) Enable() *dbus.Error {
	e.mu.Lock()
	e.enabled = true
	e.mu.Unlock()
	e.logger.Info("enabled")
	return nil
}

// Disable is called when the engine is disabled.
func (e *IBusEngine) Disable() *dbus.Error {
	e.mu.Lock()
	e.enabled = false
	e.mu.Unlock()
	e.reset()
	e.logger.Info("disabled")
	return nil
}

// Reset resets the engine state.
func (e *IBusEngine) Reset() *dbus.Error {
	e.reset()
	return nil
}

func (e *IBusEngine) reset() {
	e.keyMu.Lock()
	defer e.keyMu.Unlock()
	e.engine.Reset()
}

// SetCapabilities informs about client capabilities.
func (e *IBusEngine) SetCapabilities(caps uint32) *dbus.Error {
	e.logger.Debug("capabilities", "caps", caps)
	return nil
}

// SetContentType informs about the type of content being edited.
func (e *IBusEngine) SetContentType(purpose, hints uint32) *dbus.Error {
	e.logger.Debug("content type", "purpose", purpose, "hints", hints)
	return nil
}

// SetCursorLocation informs about cursor position.
func (e *IBusEngine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

// SetSurroundingText provides context around the cursor.
func (e *IBusEngine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	return nil
}

// PropertyActivate handles property activations.
func (e *IBusEngine) PropertyActivate(propName string, state uint32) *dbus.Error {
	e.logger.Debug("property activate", "name", propName, "state", state)
	return nil
}

// PageUp selects the previous candidate.
func (e *IBusEngine) PageUp() *dbus.Error {
	e.keyMu.Lock()
	defer e.keyMu.Unlock()
	e.engine.PreviousPredicate()
	return nil
}

// PageDown selects the next candidate.
func (e *IBusEngine) PageDown() *dbus.Error {
	e.keyMu.Lock()
	defer e.keyMu.Unlock()
	e.engine.NextPredicate()
	return nil
}

// CursorUp selects the previous candidate.
func (e *IBusEngine) CursorUp() *dbus.Error { return e.PageUp() }

// CursorDown selects the next candidate.
func (e *IBusEngine) CursorDown() *dbus.Error { return e.PageDown() }

// CandidateClicked commits the selected candidate.
func (e *IBusEngine) CandidateClicked(index, button, state uint32) *dbus.Error {
	e.keyMu.Lock()
	defer e.keyMu.Unlock()
	if err := e.engine.CommitSelected(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Close ends the engine's journal session.
func (e *IBusEngine) Close() error {
	return e.engine.Close()
}

// IBusFactory implements the IBus Factory D-Bus interface. Every engine it
// creates shares the current configuration and engine options.
type IBusFactory struct {
	bus    Bus
	opts   []EngineOption
	base   *logging.Logger
	logger *logging.Logger

	mu       sync.Mutex
	cfg      *config.Config
	engineID uint32
	engines  []*IBusEngine
}

// NewIBusFactory returns a factory creating engines from cfg.
func NewIBusFactory(bus Bus, cfg *config.Config, logger *logging.Logger, opts ...EngineOption) *IBusFactory {
	if logger == nil {
		logger = logging.Default()
	}
	return &IBusFactory{
		bus:    bus,
		cfg:    cfg,
		opts:   opts,
		base:   logger,
		logger: logger.WithComponent("ibus"),
	}
}

// CreateEngine creates a new engine instance for IBus.
func (f *IBusFactory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	f.logger.Info("create engine", "name", engineName)

	if engineName != GlyphkeyEngineName {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"Unknown engine: " + engineName})
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.engineID++
	path := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/IBus/Engine/%d", f.engineID))

	ib, err := NewIBusEngine(f.cfg, f.bus, path, f.base, f.opts...)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	if err := f.bus.Export(ib, path, IBusEngineInterface); err != nil {
		ib.Close()
		return "", dbus.MakeFailedError(err)
	}
	f.engines = append(f.engines, ib)
	return path, nil
}

// Engines returns the engines created so far.
func (f *IBusFactory) Engines() []*IBusEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*IBusEngine(nil), f.engines...)
}

// Reload applies cfg to every engine and to the ones created later.
func (f *IBusFactory) Reload(cfg *config.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for _, ib := range f.engines {
		if err := ib.engine.Reload(cfg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ib.path, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	f.cfg = cfg
	return nil
}

// Close ends the sessions of every engine.
func (f *IBusFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for _, ib := range f.engines {
		errs = append(errs, ib.Close())
	}
	return errors.Join(errs...)
}

// Serve claims the bus name, exports the factory and blocks until ctx
// is done.
func (f *IBusFactory) Serve(ctx context.Context, conn *dbus.Conn) error {
	reply, err := conn.RequestName(GlyphkeyBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("bus name already taken")
	}
	if err := conn.Export(f, IBusFactoryPath, IBusFactoryInterface); err != nil {
		return fmt.Errorf("export factory: %w", err)
	}

	f.logger.Info("ibus engine started", "bus_name", GlyphkeyBusName)
	<-ctx.Done()
	return f.Close()
}

// logWriter sends console frontend output to the debug log.
type logWriter struct {
	logger *logging.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.Debug("candidates", "text", string(p))
	return len(p), nil
}
