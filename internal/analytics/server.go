// Package analytics exposes aggregate conversation statistics over a
// password-gated HTTP API.
package analytics

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mercaline/mercabot/internal/storage"
)

type Server struct {
	app      *fiber.App
	registry storage.Registry
	tokens   *TokenManager
	password string
	logger   *zap.Logger
}

func NewServer(registry storage.Registry, password, jwtSecret string, tokenTTLMinutes int, logger *zap.Logger) *Server {
	s := &Server{
		app:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		registry: registry,
		tokens:   NewTokenManager(jwtSecret, tokenTTLMinutes),
		password: password,
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Post("/login", s.login)
	s.app.Get("/stats", s.requireToken, s.stats)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if s.password == "" || req.Password != s.password {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid password"})
	}

	token, expiresAt, err := s.tokens.GenerateToken()
	if err != nil {
		s.logger.Error("Failed to generate analytics token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not issue token"})
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	if err := s.tokens.ValidateToken(token); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	return c.Next()
}

func (s *Server) stats(c *fiber.Ctx) error {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "days must be a positive integer"})
		}
		days = parsed
	}

	stats, err := s.registry.GetStatistics(c.Context(), days)
	if err != nil {
		s.logger.Error("Failed to compute statistics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not compute statistics"})
	}

	return c.JSON(stats)
}
