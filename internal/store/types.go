// Package store provides the SQLite usage journal for glyphkey.
package store

import "time"

// Usage is how often a code produced a text.
type Usage struct {
	Code     string
	Text     string
	Hits     int64
	LastUsed time.Time
}

// Session is one run of an input engine.
type Session struct {
	ID      string
	Started time.Time
	Ended   *time.Time
	Commits int64
}
