package session

import (
	"errors"

	"github.com/signalsfoundry/video-mindmap/kb"
)

var (
	// ErrSessionNotFound indicates a requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNodeNotFound indicates a topic index outside the document.
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidTime indicates a playback time that is not a finite number.
	ErrInvalidTime = errors.New("invalid playback time")
	// ErrSessionClosed is returned by operations that would schedule work
	// on a closed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrDocumentNotFound re-exports the store sentinel so callers can
	// depend on session.* only.
	ErrDocumentNotFound = kb.ErrDocumentNotFound
)
