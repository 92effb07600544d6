package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mercaline/mercabot/internal/models"
)

func TestSessionStoreGetCreatesOnce(t *testing.T) {
	store := NewSessionStore()

	first := store.Get(42)
	assert.Equal(t, StateWelcome, first.State)
	assert.NotEmpty(t, first.ID)

	second := store.Get(42)
	assert.Same(t, first, second)

	other := store.Get(43)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, 2, store.Len())
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore()

	created := store.Get(42)
	store.Delete(42)

	recreated := store.Get(42)
	assert.NotEqual(t, created.ID, recreated.ID)
}

func TestSessionReset(t *testing.T) {
	session := newSession()
	session.State = StateChatActive
	session.Registration = models.RegistrationData{Identification: "12345678", FullName: "María"}
	session.User = &models.User{Identification: "12345678"}
	session.LastScore = 0.8

	session.Reset()

	assert.Equal(t, StateWelcome, session.State)
	assert.Equal(t, models.RegistrationData{}, session.Registration)
	assert.Nil(t, session.User)
	assert.Zero(t, session.LastScore)
}
