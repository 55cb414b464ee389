package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_user_id TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS conversations (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        title TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        conversation_id TEXT NOT NULL,
        sender TEXT NOT NULL CHECK (sender IN ('user', 'assistant')),
        content TEXT NOT NULL,
        page_context TEXT NOT NULL DEFAULT '',
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (conversation_id) REFERENCES conversations (id)
    );

    CREATE TABLE IF NOT EXISTS diary_entries (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        entry_date TEXT NOT NULL,
        activity TEXT NOT NULL,
        crop TEXT NOT NULL,
        area TEXT NOT NULL DEFAULT '',
        notes TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS reminders (
        id TEXT PRIMARY KEY,
        entry_id TEXT NOT NULL,
        user_id INTEGER NOT NULL,
        message TEXT NOT NULL,
        scheduled_for DATETIME NOT NULL,
        completed BOOLEAN DEFAULT FALSE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (entry_id) REFERENCES diary_entries (id)
    );

    CREATE TABLE IF NOT EXISTS farmer_groups (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT UNIQUE NOT NULL,
        district TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT ''
    );

    CREATE TABLE IF NOT EXISTS group_members (
        group_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (group_id, user_id),
        FOREIGN KEY (group_id) REFERENCES farmer_groups (id),
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) GetUserByExternalID(externalUserID string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE external_user_id = ?", externalUserID).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(externalUserID, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (external_user_id, password_hash) VALUES (?, ?)", externalUserID, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE id = ?", id).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Conversation methods

func (s *SQLiteStore) CreateConversation(userID int64, title *string) (*Conversation, error) {
	conversationID := uuid.NewString()
	stmt, err := s.db.Prepare("INSERT INTO conversations (id, user_id, title, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare conversation insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.Exec(conversationID, userID, title, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute conversation insert: %w", err)
	}
	return &Conversation{ID: conversationID, UserID: userID, Title: title, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetConversation(conversationID string, userID int64) (*Conversation, error) {
	var conv Conversation
	var title sql.NullString
	err := s.db.QueryRow("SELECT id, user_id, title, created_at FROM conversations WHERE id = ? AND user_id = ?", conversationID, userID).Scan(&conv.ID, &conv.UserID, &title, &conv.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if title.Valid {
		conv.Title = &title.String
	}
	return &conv, nil
}

func (s *SQLiteStore) ListConversations(userID int64) ([]Conversation, error) {
	rows, err := s.db.Query("SELECT id, user_id, title, created_at FROM conversations WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var conv Conversation
		var title sql.NullString
		if err := rows.Scan(&conv.ID, &conv.UserID, &title, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		if title.Valid {
			conv.Title = &title.String
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

func (s *SQLiteStore) UpdateConversationTitle(conversationID string, userID int64, title string) error {
	stmt, err := s.db.Prepare("UPDATE conversations SET title = ? WHERE id = ? AND user_id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare title update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(title, conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to execute title update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation not found or not owned by user, title not updated")
	}
	return nil
}

// Message methods

func (s *SQLiteStore) AppendMessage(msg *Message) error {
	msg.ID = uuid.NewString() // Ensure ID is set
	msg.Timestamp = time.Now()

	stmt, err := s.db.Prepare("INSERT INTO messages (id, conversation_id, sender, content, page_context, timestamp) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(msg.ID, msg.ConversationID, msg.Sender, msg.Content, msg.PageContext, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessages(conversationID string, limit, offset int) ([]Message, error) {
	query := "SELECT id, conversation_id, sender, content, page_context, timestamp FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC LIMIT ? OFFSET ?"
	rows, err := s.db.Query(query, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (s *SQLiteStore) GetLastNMessages(conversationID string, n int) ([]Message, error) {
	// Fetch the newest N, then flip back to chronological order.
	query := `
        SELECT id, conversation_id, sender, content, page_context, timestamp
        FROM messages
        WHERE conversation_id = ?
        ORDER BY timestamp DESC
        LIMIT ?
    `
	rows, err := s.db.Query(query, conversationID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Sender, &msg.Content, &msg.PageContext, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Diary methods

func (s *SQLiteStore) CreateDiaryEntry(entry *DiaryEntry) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()

	stmt, err := s.db.Prepare("INSERT INTO diary_entries (id, user_id, entry_date, activity, crop, area, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare diary insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(entry.ID, entry.UserID, entry.Date, entry.Activity, entry.Crop, entry.Area, entry.Notes, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute diary insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDiaryEntries(userID int64) ([]DiaryEntry, error) {
	rows, err := s.db.Query("SELECT id, user_id, entry_date, activity, crop, area, notes, created_at FROM diary_entries WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query diary entries: %w", err)
	}
	defer rows.Close()

	var entries []DiaryEntry
	for rows.Next() {
		var e DiaryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Activity, &e.Crop, &e.Area, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diary row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *SQLiteStore) CreateReminder(r *Reminder) error {
	r.CreatedAt = time.Now()
	stmt, err := s.db.Prepare("INSERT INTO reminders (id, entry_id, user_id, message, scheduled_for, completed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare reminder insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(r.ID, r.EntryID, r.UserID, r.Message, r.ScheduledFor, r.Completed, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute reminder insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetReminders(userID int64) ([]Reminder, error) {
	rows, err := s.db.Query("SELECT id, entry_id, user_id, message, scheduled_for, completed, created_at FROM reminders WHERE user_id = ? ORDER BY scheduled_for ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.EntryID, &r.UserID, &r.Message, &r.ScheduledFor, &r.Completed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, nil
}

func (s *SQLiteStore) CompleteReminder(reminderID string, userID int64) error {
	stmt, err := s.db.Prepare("UPDATE reminders SET completed = TRUE WHERE id = ? AND user_id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare reminder update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(reminderID, userID)
	if err != nil {
		return fmt.Errorf("failed to execute reminder update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("reminder not found, not updated")
	}
	return nil
}

// Farmer group methods

func (s *SQLiteStore) SeedFarmerGroups(groups []FarmerGroup) error {
	stmt, err := s.db.Prepare("INSERT OR IGNORE INTO farmer_groups (name, district, description) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare group seed: %w", err)
	}
	defer stmt.Close()

	for _, g := range groups {
		if _, err := stmt.Exec(g.Name, g.District, g.Description); err != nil {
			return fmt.Errorf("failed to seed group %q: %w", g.Name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListFarmerGroups() ([]FarmerGroup, error) {
	rows, err := s.db.Query(`
        SELECT g.id, g.name, g.district, g.description, COUNT(m.user_id)
        FROM farmer_groups g
        LEFT JOIN group_members m ON m.group_id = g.id
        GROUP BY g.id
        ORDER BY g.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []FarmerGroup
	for rows.Next() {
		var g FarmerGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.District, &g.Description, &g.MemberCount); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *SQLiteStore) JoinFarmerGroup(groupID, userID int64) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)", groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to join group: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LeaveFarmerGroup(groupID, userID int64) error {
	_, err := s.db.Exec("DELETE FROM group_members WHERE group_id = ? AND user_id = ?", groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}
	return nil
}
