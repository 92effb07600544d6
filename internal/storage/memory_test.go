package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercaline/mercabot/internal/models"
)

func newTestUser(identification string) *models.User {
	return &models.User{
		Identification: identification,
		FullName:       "María Pérez",
		Phone:          "3001234567",
		Email:          "maria@example.com",
	}
}

func TestRegisterUserDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	first := newTestUser("12345678")
	require.NoError(t, store.RegisterUser(ctx, first))

	second := newTestUser("12345678")
	second.FullName = "Otro Nombre"
	err := store.RegisterUser(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicate)

	// The first record stays unchanged.
	got, err := store.GetUser(ctx, "12345678")
	require.NoError(t, err)
	assert.Equal(t, "María Pérez", got.FullName)
	assert.True(t, got.Active)
}

func TestGetUserNotFound(t *testing.T) {
	store := NewMemoryStorage()

	_, err := store.GetUser(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserPartial(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	require.NoError(t, store.RegisterUser(ctx, newTestUser("12345678")))

	phone := "6012345678"
	updated, err := store.UpdateUser(ctx, "12345678", UserChanges{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "6012345678", updated.Phone)
	assert.Equal(t, "María Pérez", updated.FullName)

	_, err = store.UpdateUser(ctx, "404", UserChanges{Phone: &phone})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	require.NoError(t, store.RegisterUser(ctx, newTestUser("12345678")))

	require.NoError(t, store.DeactivateUser(ctx, "12345678"))
	// Idempotent.
	require.NoError(t, store.DeactivateUser(ctx, "12345678"))

	// Deactivated users are consistently absent from lookups.
	_, err := store.GetUser(ctx, "12345678")
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := store.ListUsers(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := store.ListUsers(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.False(t, all[0].Active)

	// The identification is not reusable after deactivation.
	err = store.RegisterUser(ctx, newTestUser("12345678"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCountUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	require.NoError(t, store.RegisterUser(ctx, newTestUser("1111")))
	require.NoError(t, store.RegisterUser(ctx, newTestUser("2222")))
	require.NoError(t, store.DeactivateUser(ctx, "2222"))

	active, err := store.CountUsers(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	total, err := store.CountUsers(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestLogConversationAndStatistics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	require.NoError(t, store.RegisterUser(ctx, newTestUser("12345678")))

	records := []*models.ConversationRecord{
		{
			Identification: "12345678",
			Message:        "¿Cuáles son los horarios de la sucursal Centro?",
			Reply:          "Abrimos de 8am a 9pm.",
			Category:       "horarios",
		},
		{
			Identification: "12345678",
			Message:        "¿Qué promociones tienen en promociones de frutas?",
			Reply:          "Tenemos el programa Suma y Gana.",
			Category:       "promociones",
		},
		{
			// Anonymous session.
			Message:  "hola, gracias",
			Reply:    "¡Hola!",
			Category: "general",
		},
	}
	for _, rec := range records {
		require.NoError(t, store.LogConversation(ctx, rec))
		assert.NotZero(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	stats, err := store.GetStatistics(ctx, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 3, stats.TotalConversations)
	require.Len(t, stats.PerDay, 1)
	assert.Equal(t, 3, stats.PerDay[0].Count)

	categories := make(map[string]int)
	for _, cc := range stats.Categories {
		categories[cc.Category] = cc.Count
	}
	assert.Equal(t, map[string]int{"horarios": 1, "promociones": 1, "general": 1}, categories)

	keywords := make(map[string]int)
	for _, kc := range stats.Keywords {
		keywords[kc.Keyword] = kc.Count
	}
	assert.Equal(t, 2, keywords["promociones"])
	assert.Equal(t, 1, keywords["horarios"])
	// Stop words carry no analytical value.
	assert.NotContains(t, keywords, "gracias")
	assert.NotContains(t, keywords, "hola")

	require.Len(t, stats.TopUsers, 1)
	assert.Equal(t, "María Pérez", stats.TopUsers[0].FullName)
	assert.Equal(t, 2, stats.TopUsers[0].Messages)
}

func TestStatisticsKeywordsAreAllTime(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	old := &models.ConversationRecord{
		Message:   "¿Tienen promociones de temporada?",
		Reply:     "Sí, el programa Suma y Gana.",
		Category:  "promociones",
		CreatedAt: time.Now().AddDate(0, 0, -60),
	}
	require.NoError(t, store.LogConversation(ctx, old))

	stats, err := store.GetStatistics(ctx, 30)
	require.NoError(t, err)

	// The conversation falls outside the window, but its keywords stay in
	// the running counters.
	assert.Zero(t, stats.TotalConversations)
	assert.Empty(t, stats.Categories)

	keywords := make(map[string]int)
	for _, kc := range stats.Keywords {
		keywords[kc.Keyword] = kc.Count
	}
	assert.Equal(t, 1, keywords["promociones"])
	assert.Equal(t, 1, keywords["temporada"])
}

func TestExtractKeywords(t *testing.T) {
	keywords := extractKeywords("¿A qué hora abren la sucursal del Centro? gracias")
	assert.Contains(t, keywords, "abren")
	assert.Contains(t, keywords, "sucursal")
	assert.Contains(t, keywords, "centro")
	assert.NotContains(t, keywords, "gracias")
	// Words shorter than four letters are dropped.
	assert.NotContains(t, keywords, "qué")
}
