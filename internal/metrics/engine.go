package metrics

// Engine groups the metrics an input engine reports.
type Engine struct {
	Keystrokes        *Counter
	Commits           *Counter
	Rollbacks         *Counter
	InjectErrors      *Counter
	Reloads           *Counter
	ReloadErrors      *Counter
	Idle              *Gauge
	TranslateDuration *Histogram
}

// NewEngine registers the engine metrics in r. Engines sharing a registry
// share the metrics.
func NewEngine(r *Registry) *Engine {
	return &Engine{
		Keystrokes:        r.Counter("keystrokes_total", "Key presses handled.", nil),
		Commits:           r.Counter("commits_total", "Texts committed to the field.", nil),
		Rollbacks:         r.Counter("rollbacks_total", "Backspaces that undid a resolved code.", nil),
		InjectErrors:      r.Counter("inject_errors_total", "Commands the host failed to apply.", nil),
		Reloads:           r.Counter("reloads_total", "Configuration reloads applied.", nil),
		ReloadErrors:      r.Counter("reload_errors_total", "Configuration reloads rejected.", nil),
		Idle:              r.Gauge("idle", "1 while key handling is suspended.", nil),
		TranslateDuration: r.Histogram("translate_duration_seconds", "Time spent translating an input.", nil, LatencyBuckets),
	}
}
