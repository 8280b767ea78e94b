package model

import "errors"

var (
	// ErrNoActivePoll is returned when no anchor message is found in the
	// scanned channel history.
	ErrNoActivePoll = errors.New("no active planning found")
	// ErrNoPreset is returned when a command needs the pinned preset
	// message and the channel has none.
	ErrNoPreset = errors.New("no preset message found")
)
