package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory variant of ConversationStore. History lives
// only for the lifetime of the process; nothing survives a restart.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messages      map[string][]Message // conversationID -> append-ordered history
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]Message),
	}
}

func (s *MemoryStore) CreateConversation(userID int64, title *string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now(),
	}
	s.conversations[conv.ID] = conv
	return conv, nil
}

func (s *MemoryStore) GetConversation(conversationID string, userID int64) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return nil, nil
	}
	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) ListConversations(userID int64) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateConversationTitle(conversationID string, userID int64, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return fmt.Errorf("conversation not found or not owned by user, title not updated")
	}
	conv.Title = &title
	return nil
}

func (s *MemoryStore) AppendMessage(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *MemoryStore) GetMessages(conversationID string, limit, offset int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[conversationID]
	if offset >= len(history) {
		return nil, nil
	}
	end := offset + limit
	if end > len(history) {
		end = len(history)
	}
	out := make([]Message, end-offset)
	copy(out, history[offset:end])
	return out, nil
}

func (s *MemoryStore) GetLastNMessages(conversationID string, n int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[conversationID]
	start := len(history) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(history)-start)
	copy(out, history[start:])
	return out, nil
}
