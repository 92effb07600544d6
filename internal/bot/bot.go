// Package bot is the Telegram front-end: one conversation session per chat.
package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/mercaline/mercabot/internal/chat"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	sessions *chat.SessionStore
	manager  *chat.Manager
	logger   *zap.Logger
}

func New(token string, manager *chat.Manager, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:      api,
		sessions: chat.NewSessionStore(),
		manager:  manager,
		logger:   logger,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	session := b.sessions.Get(message.Chat.ID)
	reply := b.manager.HandleMessage(ctx, session, message.Text)
	b.sendReply(message.Chat.ID, reply)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "reset":
		session := b.sessions.Get(message.Chat.ID)
		reply := b.manager.Restart(session)
		b.sendReply(message.Chat.ID, reply)
	case "help":
		b.sendMessage(message.Chat.ID, `Comandos disponibles:
/start - Iniciar la conversación
/reset - Empezar de nuevo
/help - Mostrar esta ayuda

Escríbeme directamente para registrarte, identificarte o hacer tus consultas sobre horarios, promociones y servicios.`)
	default:
		b.sendMessage(message.Chat.ID, "Comando desconocido. Usa /help para ver los comandos disponibles.")
	}
}

// sendReply renders the turn's text, with suggestion chips as a one-shot
// reply keyboard when present.
func (b *Bot) sendReply(chatID int64, reply chat.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)

	if len(reply.Suggestions) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Suggestions))
		for _, suggestion := range reply.Suggestions {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(suggestion)))
		}
		keyboard := tgbotapi.NewReplyKeyboard(rows...)
		keyboard.OneTimeKeyboard = true
		keyboard.ResizeKeyboard = true
		msg.ReplyMarkup = keyboard
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
