package store

import "time"

type User struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	PasswordHash   string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt      time.Time `json:"created_at"`
}

type Conversation struct {
	ID        string    `json:"id"` // Using UUID for external ID
	UserID    int64     `json:"user_id"`
	Title     *string   `json:"title"` // Nullable
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID             string    `json:"id"` // Using UUID for external ID
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"` // "user" or "assistant"
	Content        string    `json:"content"`
	PageContext    string    `json:"page_context,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// IsUser reports whether the message is a user turn.
func (m *Message) IsUser() bool { return m.Sender == SenderUser }

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

type DiaryEntry struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"` // YYYY-MM-DD as entered by the farmer
	Activity  string    `json:"activity"`
	Crop      string    `json:"crop"`
	Area      string    `json:"area"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type Reminder struct {
	ID           string    `json:"id"`
	EntryID      string    `json:"entry_id"`
	UserID       int64     `json:"user_id"`
	Message      string    `json:"message"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"created_at"`
}

type FarmerGroup struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	District    string `json:"district"`
	Description string `json:"description"`
	MemberCount int    `json:"member_count"`
}

// ConversationStore is the persistence contract the conversation engine
// depends on. SQLiteStore is the durable implementation; MemoryStore backs
// ephemeral voice sessions and tests.
type ConversationStore interface {
	CreateConversation(userID int64, title *string) (*Conversation, error)
	GetConversation(conversationID string, userID int64) (*Conversation, error)
	ListConversations(userID int64) ([]Conversation, error)
	UpdateConversationTitle(conversationID string, userID int64, title string) error
	AppendMessage(msg *Message) error
	GetMessages(conversationID string, limit, offset int) ([]Message, error)
	GetLastNMessages(conversationID string, n int) ([]Message, error)
}
