// Package ime runs the input method: it feeds key events through the
// preprocessor, shows the translator's candidates on a frontend and
// replays the resulting edit commands into the focused field.
//
// # Data Flow
//
//	key event ──> Preprocessor.Process ──> command queue ──> Injector
//	                    │
//	                    └──> Translator.Translate(input) ──> Frontend
//
// The host is expected to have already applied a typed key when the
// engine sees it. Replayed commands sit between Pause and Resume, and
// Listening reports false in between so that synthetic keys are not fed
// back into the engine.
//
// # Platform Adapters
//
// On Linux, IBusEngine exports the engine on the session bus through
// godbus. Other hosts plug in their own Frontend and Injector.
package ime
