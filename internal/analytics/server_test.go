package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mercaline/mercabot/internal/models"
	"github.com/mercaline/mercabot/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	return NewServer(store, "secreto123", "test-jwt-secret", 60, zap.NewNop()), store
}

func doJSON(t *testing.T, s *Server, method, target, body, token string) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	return resp
}

func obtainToken(t *testing.T, s *Server) string {
	t.Helper()
	resp := doJSON(t, s, http.MethodPost, "/login", `{"password":"secreto123"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotEmpty(t, payload.Token)
	return payload.Token
}

func TestLoginWrongPassword(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, http.MethodPost, "/login", `{"password":"incorrecta"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginEmptyConfiguredPasswordAlwaysFails(t *testing.T) {
	store := storage.NewMemoryStorage()
	s := NewServer(store, "", "test-jwt-secret", 60, zap.NewNop())

	resp := doJSON(t, s, http.MethodPost, "/login", `{"password":""}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginIssuesToken(t *testing.T) {
	s, _ := newTestServer(t)
	token := obtainToken(t, s)
	assert.NoError(t, s.tokens.ValidateToken(token))
}

func TestStatsRequiresToken(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, http.MethodGet, "/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, s, http.MethodGet, "/stats", "", "not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatsReturnsAggregates(t *testing.T) {
	ctx := context.Background()
	s, store := newTestServer(t)

	require.NoError(t, store.RegisterUser(ctx, &models.User{
		Identification: "12345678",
		FullName:       "María Pérez",
		Phone:          "3001234567",
		Email:          "maria@example.com",
	}))
	require.NoError(t, store.LogConversation(ctx, &models.ConversationRecord{
		Identification: "12345678",
		Message:        "¿Cuáles son los horarios de atención?",
		Reply:          "Abrimos de 8am a 9pm.",
		Category:       "horarios",
	}))

	token := obtainToken(t, s)
	resp := doJSON(t, s, http.MethodGet, "/stats", "", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats models.Statistics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalConversations)
	require.Len(t, stats.Categories, 1)
	assert.Equal(t, "horarios", stats.Categories[0].Category)
}

func TestStatsRejectsInvalidDays(t *testing.T) {
	s, _ := newTestServer(t)
	token := obtainToken(t, s)

	resp := doJSON(t, s, http.MethodGet, "/stats?days=abc", "", token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, s, http.MethodGet, "/stats?days=-5", "", token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTokenManagerRejectsForeignSignature(t *testing.T) {
	issuer := NewTokenManager("secret-a", 60)
	verifier := NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken()
	require.NoError(t, err)

	assert.NoError(t, issuer.ValidateToken(token))
	assert.Error(t, verifier.ValidateToken(token))
}
