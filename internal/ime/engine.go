package ime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"glyphkey/internal/config"
	"glyphkey/internal/frontend"
	"glyphkey/internal/keyboard"
	"glyphkey/internal/logging"
	"glyphkey/internal/memory"
	"glyphkey/internal/metrics"
	"glyphkey/internal/preprocessor"
	"glyphkey/internal/script"
	"glyphkey/internal/translator"
)

// ErrIdle is returned by HandleKey while the engine is idle.
var ErrIdle = errors.New("engine is idle")

// journalTimeout bounds a single journal write.
const journalTimeout = 2 * time.Second

// Frontend shows the candidates of the current input.
type Frontend interface {
	SetPageSize(size int)
	SetIdle(idle bool)
	SetInput(input string)
	AddPredicate(p translator.Predicate)
	Update()
	Clear()
	SelectNext()
	SelectPrevious()
	Selected() (translator.Predicate, bool)
}

// Injector replays a preprocessor command in the focused field.
type Injector interface {
	Inject(cmd preprocessor.Command) error
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func(cmd preprocessor.Command) error

// Inject calls f.
func (f InjectorFunc) Inject(cmd preprocessor.Command) error { return f(cmd) }

// Journal records committed texts. *store.Store implements it.
type Journal interface {
	StartSession(ctx context.Context, id string, at time.Time) error
	EndSession(ctx context.Context, id string, at time.Time) error
	RecordUsage(ctx context.Context, session, code, text string, at time.Time) error
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFrontend sets the candidate display.
func WithFrontend(f Frontend) EngineOption {
	return func(e *Engine) { e.frontend = f }
}

// WithInjector sets where commands are replayed.
func WithInjector(i Injector) EngineOption {
	return func(e *Engine) { e.injector = i }
}

// WithJournal records every commit in j.
func WithJournal(j Journal) EngineOption {
	return func(e *Engine) { e.journal = j }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics reports to m instead of a private registry.
func WithMetrics(m *metrics.Engine) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides time.Now for journal timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// core is everything a configuration reload replaces.
type core struct {
	pre      *preprocessor.Preprocessor
	tr       *translator.Translator
	pageSize int
}

type usage struct {
	code, text string
}

// Engine ties the preprocessor and the translator to a frontend and an
// injector. It is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	core     core
	frontend Frontend
	injector Injector
	journal  Journal
	logger   *logging.Logger
	metrics  *metrics.Engine
	now      func() time.Time
	session  string
	pending  []usage

	listening atomic.Bool
	idle      atomic.Bool
}

// NewEngine builds an engine from cfg. Scripted translators are compiled
// here, so a broken script fails construction.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		session: uuid.NewString(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.frontend == nil {
		e.frontend = frontend.NewConsole(io.Discard)
	}
	if e.injector == nil {
		e.injector = InjectorFunc(func(preprocessor.Command) error { return nil })
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	if e.metrics == nil {
		e.metrics = metrics.NewEngine(metrics.NewRegistry("glyphkey"))
	}
	e.logger = e.logger.WithComponent("engine").WithSession(e.session)

	c, err := e.build(cfg)
	if err != nil {
		return nil, err
	}
	e.core = c
	e.frontend.SetPageSize(c.pageSize)
	e.listening.Store(true)

	if e.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()
		if err := e.journal.StartSession(ctx, e.session, e.now()); err != nil {
			return nil, fmt.Errorf("start journal session: %w", err)
		}
	}

	e.logger.Info("engine ready",
		"codes", len(cfg.Data()),
		"translations", cfg.Translation().Len(),
		"rules", len(c.tr.Rules()),
		"inhibit", c.pre.Inhibit(),
		"auto_commit", c.tr.AutoCommit(),
	)
	return e, nil
}

func (e *Engine) build(cfg *config.Config) (core, error) {
	root := memory.Build(cfg.Data())
	pre := preprocessor.New(root, cfg.Core.BufferSize, preprocessor.WithInhibit(cfg.Core.Inhibit))

	tr := translator.New(cfg.Translation(), cfg.Core.AutoCommit,
		translator.WithSimilarity(cfg.Core.SimilarityThreshold),
		translator.WithLogger(e.logger.WithComponent("translator").Logger),
	)
	for _, ref := range cfg.Translators() {
		s, err := script.LoadFile(ref.Name, ref.Path)
		if err != nil {
			return core{}, fmt.Errorf("load translator %s: %w", ref.Name, err)
		}
		tr.Register(ref.Name, s)
	}

	return core{pre: pre, tr: tr, pageSize: cfg.Core.PageSize}, nil
}

// Metrics returns the metrics the engine reports to.
func (e *Engine) Metrics() *metrics.Engine { return e.metrics }

// Session returns the ID of this engine's session.
func (e *Engine) Session() string { return e.session }

// Listening reports whether the engine expects real key events. It is
// false while commands between Pause and Resume are being replayed.
func (e *Engine) Listening() bool { return e.listening.Load() }

// Idle reports whether key handling is suspended.
func (e *Engine) Idle() bool { return e.idle.Load() }

// SetIdle suspends or resumes key handling.
func (e *Engine) SetIdle(idle bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idle.Store(idle)
	e.metrics.Idle.SetBool(idle)
	e.frontend.SetIdle(idle)
}

// ToggleIdle flips the idle state and returns the new one.
func (e *Engine) ToggleIdle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	idle := !e.idle.Load()
	e.idle.Store(idle)
	e.metrics.Idle.SetBool(idle)
	e.frontend.SetIdle(idle)
	return idle
}

// Input returns the code typed so far.
func (e *Engine) Input() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.core.pre.Input()
}

// HandleKey processes one key event, refreshes the frontend and replays
// the resulting commands.
func (e *Engine) HandleKey(ev keyboard.Event) error {
	if e.idle.Load() {
		return ErrIdle
	}
	if !e.listening.Load() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.State == keyboard.Down {
		e.metrics.Keystrokes.Inc()
	}
	changed, committed := e.core.pre.Process(ev)
	if committed && ev.Key.Is(keyboard.Backspace) {
		e.metrics.Rollbacks.Inc()
	}
	if committed && ev.Key.IsCharacter() {
		if code, text, ok := e.resolved(); ok {
			e.pending = append(e.pending, usage{code: code, text: text})
		}
	}
	if changed {
		e.refresh()
	}
	return e.drain()
}

// resolved returns the code the cursor just completed and its value.
func (e *Engine) resolved() (string, string, bool) {
	cur := e.core.pre.Cursor()
	st := cur.State()
	if !st.Ok {
		return "", "", false
	}
	seq := cur.ToSequence()
	depth := min(st.Depth, len(seq))
	return string(seq[len(seq)-depth:]), st.Value, true
}

func (e *Engine) refresh() {
	c := e.core
	input := c.pre.Input()

	e.frontend.Clear()
	start := time.Now()
	predicates := c.tr.Translate(input)
	e.metrics.TranslateDuration.ObserveDuration(time.Since(start))
	for i, p := range predicates {
		if i >= c.pageSize*2 {
			break
		}
		switch {
		case len(p.Texts) == 0:
		case c.tr.AutoCommit() && p.CanCommit:
			c.pre.Commit(p.Texts[0])
			e.pending = append(e.pending, usage{code: input, text: p.Texts[0]})
		default:
			e.frontend.AddPredicate(p)
		}
	}
	e.frontend.SetInput(input)
	e.frontend.Update()
}

// drain replays the queued commands. Every command is attempted even if
// an earlier one failed, and the engine listens again afterwards.
func (e *Engine) drain() error {
	defer e.listening.Store(true)

	var errs []error
	for {
		cmd, ok := e.core.pre.PopQueue()
		if !ok {
			break
		}
		switch cmd.Kind {
		case preprocessor.Pause:
			e.listening.Store(false)
		case preprocessor.Resume:
			e.listening.Store(true)
		case preprocessor.CommitText:
			e.metrics.Commits.Inc()
			e.logger.Debug("commit", "text", cmd.Text)
		}
		if err := e.injector.Inject(cmd); err != nil {
			e.metrics.InjectErrors.Inc()
			e.logger.Error("inject failed", "command", cmd.Kind.String(), "error", err)
			errs = append(errs, fmt.Errorf("inject %s: %w", cmd.Kind, err))
		}
	}

	e.flushJournal()
	return errors.Join(errs...)
}

func (e *Engine) flushJournal() {
	pending := e.pending
	e.pending = e.pending[:0]
	if e.journal == nil || len(pending) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	for _, u := range pending {
		if err := e.journal.RecordUsage(ctx, e.session, u.code, u.text, e.now()); err != nil {
			e.logger.Warn("journal write failed", "error", err)
		}
	}
}

// NextPredicate selects the next candidate.
func (e *Engine) NextPredicate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frontend.SelectNext()
}

// PreviousPredicate selects the previous candidate.
func (e *Engine) PreviousPredicate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frontend.SelectPrevious()
}

// CommitSelected replaces the typed code with the first text of the
// selected candidate. It does nothing when no candidate is selected.
func (e *Engine) CommitSelected() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.frontend.Selected()
	if !ok {
		return nil
	}
	var text string
	if len(p.Texts) > 0 {
		text = p.Texts[0]
	}

	input := e.core.pre.Input()
	e.core.pre.Commit(text)
	e.pending = append(e.pending, usage{code: input, text: text})
	e.frontend.Clear()
	e.frontend.Update()
	return e.drain()
}

// Reset forgets the typed code without touching the field, as when the
// focus moves elsewhere.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.core.pre.Cursor().Clear()
	e.core.pre.ClearQueue()
	e.frontend.Clear()
	e.frontend.Update()
}

// Translate returns the candidates for input without touching the state.
func (e *Engine) Translate(input string) []translator.Predicate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.core.tr.Translate(input)
}

// Reload swaps in a new configuration. The typed code is dropped.
func (e *Engine) Reload(cfg *config.Config) error {
	c, err := e.build(cfg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.core = c
	e.frontend.SetPageSize(c.pageSize)
	e.frontend.Clear()
	e.metrics.Reloads.Inc()
	e.logger.Info("configuration reloaded", "path", cfg.Path(), "rules", len(c.tr.Rules()))
	return nil
}

// Run handles events until ctx is done or events is closed.
func (e *Engine) Run(ctx context.Context, events <-chan keyboard.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := e.HandleKey(ev); err != nil && !errors.Is(err, ErrIdle) {
				e.logger.Error("key handling failed", "key", ev.Key.String(), "error", err)
			}
		}
	}
}

// Close ends the journal session.
func (e *Engine) Close() error {
	if e.journal == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := e.journal.EndSession(ctx, e.session, e.now()); err != nil {
		return fmt.Errorf("end journal session: %w", err)
	}
	return nil
}
