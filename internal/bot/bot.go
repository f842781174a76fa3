package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/hifzbot/internal/config"
	"github.com/example/hifzbot/internal/database"
	"github.com/example/hifzbot/internal/logger"
	"github.com/example/hifzbot/internal/observability"
	"github.com/example/hifzbot/internal/review"
	"github.com/example/hifzbot/internal/scheduler"
	"github.com/example/hifzbot/internal/session"
	"github.com/example/hifzbot/pkg/models"
)

// DefaultNotificationHour is the local reminder hour of new users
const DefaultNotificationHour = 9

var _ scheduler.Notifier = (*Bot)(nil)

// API is the part of the Telegram client the bot uses; *tgbotapi.BotAPI satisfies it
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Reviewer is the review core as seen by the bot
type Reviewer interface {
	StartSession(ctx context.Context, userID int64, req session.Request) (*session.Session, error)
	Grade(ctx context.Context, userID int64, req review.GradeRequest, loc *time.Location) (*review.GradeResult, error)
	Stats(ctx context.Context, userID int64, loc *time.Location) models.Stats
	Reset(ctx context.Context, userID int64) error
}

// UserStore persists Telegram users and their settings
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application
type Bot struct {
	api      API
	reviewer Reviewer
	users    UserStore
	cfg      config.Config
	log      *logger.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	sessions map[int64]*activeSession
}

// New creates a new bot instance
func New(api API, reviewer Reviewer, users UserStore, cfg config.Config, log *logger.Logger, metrics *observability.Metrics) *Bot {
	if cfg.DefaultTimezone == nil {
		cfg.DefaultTimezone = time.UTC
	}
	return &Bot{
		api:      api,
		reviewer: reviewer,
		users:    users,
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		sessions: make(map[int64]*activeSession),
	}
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)
	b.log.Info("telegram bot receiving updates")

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Chat != nil:
		err = b.sendMessage(tgbotapi.NewMessage(update.Message.Chat.ID, "I don't understand. Use /help to see the commands."))
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.log.Warn("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	// Telegram private chats share the user's ID
	msg := tgbotapi.NewMessage(userID, reminderText(count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "📖 Start review", CallbackData: callbackReview}},
	})
	return b.sendMessage(msg)
}

// loadUser returns the stored user, creating one with default settings on first contact
func (b *Bot) loadUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	user, err := b.users.GetByID(ctx, from.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		ID:                  from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		ScopeKind:           models.ScopeJuz,
		ScopeIDs:            []int{30},
		SessionSize:         b.cfg.SessionSize,
		ContextBefore:       b.cfg.ContextBefore,
		ContextAfter:        b.cfg.ContextAfter,
		NotificationEnabled: true,
		NotificationHour:    DefaultNotificationHour,
	}
	if err := b.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	b.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.cfg.IsAdmin(userID)
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
