// Package chat drives the multi-turn conversation: welcome, user
// identification or registration, then document-grounded question answering.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mercaline/mercabot/internal/classifier"
	"github.com/mercaline/mercabot/internal/models"
	"github.com/mercaline/mercabot/internal/qa"
	"github.com/mercaline/mercabot/internal/storage"
	"github.com/mercaline/mercabot/internal/validate"
)

const welcomeMessage = `¡Hola! Soy tu asistente virtual del supermercado.
¿Eres un cliente nuevo o ya tienes cuenta con nosotros?

Responde:
- "Soy nuevo" o "Cliente nuevo" para registrarte
- "Ya tengo cuenta" o "Cliente frecuente" para identificarte`

const capabilitiesMessage = `Soy tu asistente virtual del supermercado y puedo ayudarte con:

🕒 Horarios de atención de todas nuestras sucursales
🎁 Promociones vigentes y el programa "Suma y Gana"
❓ Preguntas frecuentes: métodos de pago, políticas y servicios

Simplemente pregúntame lo que necesites saber. Por ejemplo:
- "¿Cuáles son los horarios de la sucursal Centro?"
- "¿Cómo funciona el programa Suma y Gana?"
- "¿Qué métodos de pago aceptan?"`

var newUserWords = []string{"nuevo", "nueva", "registrar", "registro"}
var existingUserWords = []string{"frecuente", "cuenta", "tengo", "ya", "registrado"}
var resetWords = []string{"reset", "restart", "reiniciar", "empezar de nuevo"}

var capabilityPhrases = []string{
	"en qué me puedes ayudar",
	"qué puedes hacer",
	"cómo me ayudas",
	"cuáles son tus funciones",
	"qué servicios ofreces",
	"para qué sirves",
	"qué información tienes",
	"cómo funciona este chat",
	"qué consultas puedo hacer",
	"cuál es tu propósito",
	"qué preguntas puedo hacerte",
}

// Reply is what the UI renders for one turn: text plus optional
// follow-up-suggestion chips.
type Reply struct {
	Text        string
	Suggestions []string
}

// Manager orchestrates one conversation turn at a time.
type Manager struct {
	registry   storage.Registry
	engine     qa.Engine
	classifier classifier.Classifier
	logger     *zap.Logger
}

func NewManager(registry storage.Registry, engine qa.Engine, logger *zap.Logger) *Manager {
	return &Manager{
		registry:   registry,
		engine:     engine,
		classifier: classifier.NewKeywordClassifier(),
		logger:     logger,
	}
}

// HandleMessage consumes one user message, advances the session state
// machine and returns the reply. It never fails the turn: every error
// becomes an actionable message for the user. Turns are serialized per
// session, so state transitions only ever follow complete turns.
func (m *Manager) HandleMessage(ctx context.Context, session *Session, text string) Reply {
	session.mu.Lock()
	defer session.mu.Unlock()

	switch session.State {
	case StateWelcome:
		return m.handleWelcome(ctx, session, text)
	case StateIdentifyUserType:
		return m.handleIdentifyUserType(session, text)
	case StateExistingUserID:
		return m.handleExistingUserID(ctx, session, text)
	case StateNewUserID:
		return m.handleNewUserID(ctx, session, text)
	case StateNewUserName:
		return m.handleNewUserName(session, text)
	case StateNewUserPhone:
		return m.handleNewUserPhone(session, text)
	case StateNewUserEmail:
		return m.handleNewUserEmail(ctx, session, text)
	case StateChatActive:
		return m.handleActiveChat(ctx, session, text)
	default:
		session.Reset()
		return Reply{Text: "Hubo un problema. Vamos a empezar de nuevo. " + welcomeMessage}
	}
}

// Restart discards the conversation state and greets again, as on /start
// or /reset. It waits for any turn in progress to finish.
func (m *Manager) Restart(session *Session) Reply {
	session.mu.Lock()
	defer session.mu.Unlock()

	session.Reset()
	return Reply{Text: welcomeMessage}
}

func (m *Manager) handleWelcome(ctx context.Context, session *Session, text string) Reply {
	session.State = StateIdentifyUserType
	if strings.TrimSpace(text) == "" {
		return Reply{Text: welcomeMessage}
	}
	return m.handleIdentifyUserType(session, text)
}

func (m *Manager) handleIdentifyUserType(session *Session, text string) Reply {
	lower := strings.ToLower(strings.TrimSpace(text))

	if containsAny(lower, newUserWords) {
		session.State = StateNewUserID
		return Reply{Text: "¡Perfecto! Vamos a registrarte. Primero necesito tu número de identificación (entre 4 y 11 dígitos):"}
	}
	if containsAny(lower, existingUserWords) {
		session.State = StateExistingUserID
		return Reply{Text: "¡Excelente! Por favor ingresa tu número de identificación para verificar tu cuenta:"}
	}
	return Reply{Text: "No entendí tu respuesta. Por favor indica si eres un cliente nuevo o ya tienes cuenta con nosotros."}
}

func (m *Manager) handleExistingUserID(ctx context.Context, session *Session, text string) Reply {
	identification := strings.TrimSpace(text)

	if err := validate.Identification(identification); err != nil {
		return Reply{Text: fmt.Sprintf("❌ %s. Por favor ingresa tu identificación correctamente:", err.Reason)}
	}

	user, err := m.registry.GetUser(ctx, identification)
	if errors.Is(err, storage.ErrNotFound) {
		session.State = StateIdentifyUserType
		return Reply{Text: "No encontré tu identificación en nuestro sistema. ¿Te gustaría registrarte como cliente nuevo?"}
	}
	if err != nil {
		m.logger.Error("Failed to look up user",
			zap.Error(err),
			zap.String("session_id", session.ID))
		return Reply{Text: "Lo siento, tuve un problema verificando tu cuenta. Por favor intenta de nuevo:"}
	}

	session.User = user
	session.State = StateChatActive
	return Reply{Text: fmt.Sprintf("¡Hola %s! 😊 ¿En qué puedo ayudarte hoy?", user.FullName)}
}

func (m *Manager) handleNewUserID(ctx context.Context, session *Session, text string) Reply {
	identification := strings.TrimSpace(text)

	if err := validate.Identification(identification); err != nil {
		return Reply{Text: fmt.Sprintf("❌ %s. Por favor intenta de nuevo:", err.Reason)}
	}

	// Duplicate check up front so the customer does not fill the whole form
	// before finding out.
	_, err := m.registry.GetUser(ctx, identification)
	if err == nil {
		return Reply{Text: "❌ Esta identificación ya está registrada. ¿Eres un cliente frecuente? Si es así, escribe \"ya tengo cuenta\" para identificarte."}
	}
	if !errors.Is(err, storage.ErrNotFound) {
		m.logger.Error("Failed to check identification",
			zap.Error(err),
			zap.String("session_id", session.ID))
		return Reply{Text: "Lo siento, tuve un problema verificando la identificación. Por favor intenta de nuevo:"}
	}

	session.Registration.Identification = identification
	session.State = StateNewUserName
	return Reply{Text: "✅ ¡Perfecto! Ahora necesito tu nombre completo:"}
}

func (m *Manager) handleNewUserName(session *Session, text string) Reply {
	name := strings.TrimSpace(text)

	if err := validate.FullName(name); err != nil {
		return Reply{Text: fmt.Sprintf("❌ %s. Por favor intenta de nuevo:", err.Reason)}
	}

	session.Registration.FullName = name
	session.State = StateNewUserPhone
	return Reply{Text: "✅ ¡Excelente! Ahora necesito tu número de teléfono (10 dígitos, iniciando por 3 o 6):"}
}

func (m *Manager) handleNewUserPhone(session *Session, text string) Reply {
	phone := strings.TrimSpace(text)

	if err := validate.Phone(phone); err != nil {
		return Reply{Text: fmt.Sprintf("❌ %s. Por favor intenta de nuevo:", err.Reason)}
	}

	session.Registration.Phone = phone
	session.State = StateNewUserEmail
	return Reply{Text: "✅ ¡Perfecto! Por último, necesito tu correo electrónico:"}
}

func (m *Manager) handleNewUserEmail(ctx context.Context, session *Session, text string) Reply {
	email := strings.TrimSpace(text)

	if err := validate.Email(email); err != nil {
		return Reply{Text: fmt.Sprintf("❌ %s. Por favor intenta de nuevo:", err.Reason)}
	}

	session.Registration.Email = email
	user := &models.User{
		Identification: session.Registration.Identification,
		FullName:       session.Registration.FullName,
		Phone:          session.Registration.Phone,
		Email:          session.Registration.Email,
	}

	err := m.registry.RegisterUser(ctx, user)
	if errors.Is(err, storage.ErrDuplicate) {
		// Someone claimed the identification mid-registration.
		session.Registration = models.RegistrationData{}
		session.State = StateNewUserID
		return Reply{Text: "❌ Esta identificación ya está registrada. Por favor ingresa otra identificación:"}
	}
	if err != nil {
		m.logger.Error("Failed to register user",
			zap.Error(err),
			zap.String("session_id", session.ID))
		return Reply{Text: "❌ Hubo un error en el registro. Por favor contacta al servicio al cliente."}
	}

	session.User = user
	session.Registration = models.RegistrationData{}
	session.State = StateChatActive
	return Reply{Text: fmt.Sprintf("🎉 ¡Registro completado exitosamente! Bienvenido/a %s. ¿En qué puedo ayudarte hoy?", user.FullName)}
}

func (m *Manager) handleActiveChat(ctx context.Context, session *Session, text string) Reply {
	lower := strings.ToLower(strings.TrimSpace(text))

	if containsAny(lower, resetWords) {
		session.Reset()
		return Reply{Text: "Empecemos de nuevo. " + welcomeMessage}
	}

	if isCapabilityQuestion(lower) {
		reply := Reply{Text: capabilitiesMessage}
		m.logTurn(ctx, session, text, reply.Text, "capacidades")
		return reply
	}

	answer, err := m.engine.Answer(ctx, text)
	if errors.Is(err, qa.ErrNotReady) {
		return Reply{Text: "Estoy preparando la información de la tienda. Por favor intenta de nuevo en unos minutos o contacta al servicio al cliente."}
	}
	if err != nil {
		m.logger.Error("Failed to answer question",
			zap.Error(err),
			zap.String("session_id", session.ID))
		return Reply{Text: "Lo siento, hubo un problema procesando tu consulta. Por favor intenta de nuevo o contacta al servicio al cliente."}
	}

	session.LastScore = answer.Score

	reply := Reply{Text: answer.Text, Suggestions: answer.Suggestions}
	if len(answer.Sources) > 0 {
		reply.Text += fmt.Sprintf("\n\n📚 Información obtenida de: %s", strings.Join(answer.Sources, ", "))
	}

	m.logTurn(ctx, session, text, reply.Text, m.classifier.Classify(text))
	return reply
}

// logTurn appends the exchange to the conversation log. Persistence hiccups
// in analytics must not break the chat, so failures are only logged.
func (m *Manager) logTurn(ctx context.Context, session *Session, message, reply, category string) {
	rec := &models.ConversationRecord{
		Message:  message,
		Reply:    reply,
		Category: category,
	}
	if session.User != nil {
		rec.Identification = session.User.Identification
	}

	if err := m.registry.LogConversation(ctx, rec); err != nil {
		m.logger.Error("Failed to log conversation",
			zap.Error(err),
			zap.String("session_id", session.ID))
	}
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func isCapabilityQuestion(text string) bool {
	for _, phrase := range capabilityPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
