// Package capture manages audio recording sessions. The microphone is an
// exclusively-owned resource: a user holds at most one active session, and
// the session is released on every exit path.
package capture

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDeviceUnavailable is returned when the user already holds an
	// active recording session (the device is busy) or capture cannot
	// start.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrSessionNotRecording is returned when chunks arrive for a session
	// that is not in the Recording state.
	ErrSessionNotRecording = errors.New("session is not recording")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("recording session not found")
)

// State of a recording session.
type State int

const (
	Idle State = iota
	Recording
	Stopped
)

// Session accumulates encoded audio chunks for one recording. Chunk order
// is append-only: insertion order is playback order.
type Session struct {
	ID        string
	UserID    int64
	State     State
	StartedAt time.Time

	chunks [][]byte
}

// Manager owns all live recording sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session // session ID -> session
	byUser   map[int64]string    // user ID -> active session ID
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		byUser:   make(map[int64]string),
	}
}

// Start acquires the device for the user and begins buffering. Fails with
// ErrDeviceUnavailable while the user's previous session is still active.
func (m *Manager) Start(userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.byUser[userID]; busy {
		return nil, ErrDeviceUnavailable
	}

	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     Recording,
		StartedAt: time.Now(),
	}
	m.sessions[s.ID] = s
	m.byUser[userID] = s.ID
	return s, nil
}

// Append adds one encoded chunk to the session buffer.
func (m *Manager) Append(sessionID string, chunk []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.State != Recording {
		return ErrSessionNotRecording
	}

	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	s.chunks = append(s.chunks, buf)
	return nil
}

// Stop finalizes the buffered chunks into a single blob, releases the
// device and destroys the session. Returns nil when no active session
// exists for the ID — stop without start is not an error.
func (m *Manager) Stop(sessionID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	// Release on every exit path, including an empty recording.
	delete(m.sessions, sessionID)
	delete(m.byUser, s.UserID)
	s.State = Stopped

	if len(s.chunks) == 0 {
		return nil, nil
	}

	var blob bytes.Buffer
	for _, chunk := range s.chunks {
		blob.Write(chunk)
	}
	s.chunks = nil
	return blob.Bytes(), nil
}

// Active reports whether the user currently holds the device.
func (m *Manager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, busy := m.byUser[userID]
	return busy
}
