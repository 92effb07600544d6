package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mercaline/mercabot/internal/models"
)

// State is one node of the conversation state machine.
type State string

const (
	StateWelcome          State = "welcome"
	StateIdentifyUserType State = "identify_user_type"
	StateExistingUserID   State = "existing_user_id"
	StateNewUserID        State = "new_user_id"
	StateNewUserName      State = "new_user_name"
	StateNewUserPhone     State = "new_user_phone"
	StateNewUserEmail     State = "new_user_email"
	StateChatActive       State = "chat_active"
)

// Session is the in-memory conversation state for one connected client.
// It is an explicit value passed into every turn; there are no ambient
// globals. Manager serializes turns through mu, so a second message from
// the same chat waits for the current turn to finish.
type Session struct {
	mu sync.Mutex

	ID           string
	State        State
	Registration models.RegistrationData
	User         *models.User
	LastScore    float64
}

func newSession() *Session {
	return &Session{
		ID:    uuid.New().String(),
		State: StateWelcome,
	}
}

// Reset returns the session to the welcome state, clearing all transient
// registration fields and the authenticated user. Concurrent callers must
// go through Manager, which holds the turn lock.
func (s *Session) Reset() {
	s.State = StateWelcome
	s.Registration = models.RegistrationData{}
	s.User = nil
	s.LastScore = 0
}

// SessionStore keeps one Session per connected chat.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
	}
}

// Get returns the session for the chat, creating it on first contact.
func (st *SessionStore) Get(chatID int64) *Session {
	st.mu.RLock()
	session, exists := st.sessions[chatID]
	st.mu.RUnlock()
	if exists {
		return session
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if session, exists := st.sessions[chatID]; exists {
		return session
	}
	session = newSession()
	st.sessions[chatID] = session
	return session
}

// Delete discards the session, as on client disconnect.
func (st *SessionStore) Delete(chatID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, chatID)
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
