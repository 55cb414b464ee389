package speech

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clip is one piece of playable audio handed to a client.
type Clip struct {
	ID          string    `json:"id"`
	Audio       []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	StartedAt   time.Time `json:"started_at"`
}

// Player is the single playback slot. Starting a new clip stops whatever is
// playing; at most one clip is active at any instant. This is the only
// mutual-exclusion rule in the voice pipeline.
type Player struct {
	mu      sync.Mutex
	current *Clip
}

func NewPlayer() *Player {
	return &Player{}
}

// Play claims the slot for the given audio, displacing any active clip.
func (p *Player) Play(audio []byte, contentType string) *Clip {
	p.mu.Lock()
	defer p.mu.Unlock()

	clip := &Clip{
		ID:          uuid.NewString(),
		Audio:       audio,
		ContentType: contentType,
		StartedAt:   time.Now(),
	}
	p.current = clip
	return clip
}

// Stop releases the slot. Safe to call when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
}

// Complete releases the slot if the given clip is still the active one.
// A stale completion (the clip was already displaced) is ignored.
func (p *Player) Complete(clipID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.current.ID == clipID {
		p.current = nil
	}
}

// Playing reports whether a clip currently holds the slot.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Current returns the active clip, or nil.
func (p *Player) Current() *Clip {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
