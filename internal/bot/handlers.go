package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/hifzbot/pkg/models"
)

// Constants for callback data
const (
	callbackReview       = "review"
	callbackStats        = "stats"
	callbackSettings     = "settings"
	callbackHelp         = "help"
	callbackMainMenu     = "main_menu"
	callbackResetConfirm = "reset_confirm"
	callbackCancelAction = "cancel_action"
)

const (
	maxSessionSize = 50
	maxContext     = 5
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message.Chat.ID)
	case "review":
		err = b.startReview(ctx, message.From, message.Chat.ID)
	case "stats":
		err = b.handleStats(ctx, message.From, message.Chat.ID)
	case "settings":
		err = b.handleSettings(ctx, message.From, message.Chat.ID)
	case "scope":
		err = b.handleScopeCommand(ctx, message)
	case "size":
		err = b.handleSizeCommand(ctx, message)
	case "context":
		err = b.handleContextCommand(ctx, message)
	case "tz":
		err = b.handleTimezoneCommand(ctx, message)
	case "notify":
		err = b.handleNotifyCommand(ctx, message)
	case "reset":
		err = b.handleResetCommand(message)
	case "admin_stats":
		err = b.handleAdminStats(ctx, message)
	default:
		err = b.handleUnknownCommand(message)
	}
	return err
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.Message.Chat == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always send an answer to the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	chatID := callback.Message.Chat.ID
	var err error
	switch callback.Data {
	case callbackMainMenu:
		err = b.showMainMenu(chatID)
	case callbackReview:
		err = b.startReview(ctx, callback.From, chatID)
	case callbackStats:
		err = b.handleStats(ctx, callback.From, chatID)
	case callbackSettings:
		err = b.handleSettings(ctx, callback.From, chatID)
	case callbackHelp:
		err = b.handleHelp(chatID)
	case callbackResetConfirm:
		err = b.handleResetConfirm(ctx, callback.From.ID, chatID)
	case callbackCancelAction:
		err = b.sendMessage(tgbotapi.NewMessage(chatID, "Cancelled."))
	default:
		action, perr := parseReviewCallback(callback.Data)
		if perr != nil {
			return b.sendMessage(tgbotapi.NewMessage(chatID, "⚠️ Unknown action"))
		}
		err = b.handleReviewCallback(ctx, callback, action)
	}

	if err != nil {
		b.log.Warn("callback failed", "user_id", callback.From.ID, "data", callback.Data, "error", err)
		return b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Something went wrong. Please try again later."))
	}
	return nil
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user, err := b.loadUser(ctx, message.From)
	if err != nil {
		return err
	}

	text := "Assalamu alaikum! 👋\n\n" +
		"I help you keep the ayahs you memorized with spaced repetition.\n\n" +
		"🔹 How it works:\n" +
		"1. Pick the juz or surahs you are revising (/scope)\n" +
		"2. Start a review and recite what follows each prompt\n" +
		"3. Tell me whether you remembered it\n" +
		"4. Ayahs come back just before you would forget them\n\n" +
		"Current scope: " + formatScope(user.Scope())

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "📖 Commands\n\n" +
		"/review - Start a review session\n" +
		"/stats - Show your progress\n" +
		"/settings - Show your settings\n\n" +
		"⚙️ Settings:\n" +
		"/scope juz 29 30 - Review by juz\n" +
		"/scope surah 36 67 - Review by surah\n" +
		fmt.Sprintf("/size 10 - Prompts per session (1-%d)\n", maxSessionSize) +
		fmt.Sprintf("/context 1 2 - Ayahs shown before / recited after (0-%d)\n", maxContext) +
		"/tz Asia/Jakarta - Your timezone\n" +
		"/notify on 7 - Daily reminder at 07:00, /notify off to disable\n" +
		"/reset - Delete all your review progress"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⬅️ Back to menu", CallbackData: callbackMainMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleStats(ctx context.Context, from *tgbotapi.User, chatID int64) error {
	user, err := b.loadUser(ctx, from)
	if err != nil {
		return err
	}
	stats := b.reviewer.Stats(ctx, user.ID, user.Location(b.cfg.DefaultTimezone))

	msg := tgbotapi.NewMessage(chatID, formatStats(stats))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "📖 Start review", CallbackData: callbackReview}},
		{{Text: "« Back to menu", CallbackData: callbackMainMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleSettings(ctx context.Context, from *tgbotapi.User, chatID int64) error {
	user, err := b.loadUser(ctx, from)
	if err != nil {
		return err
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, formatSettings(*user, b.cfg.DefaultTimezone)))
}

func (b *Bot) handleScopeCommand(ctx context.Context, message *tgbotapi.Message) error {
	scope, err := parseScopeArgs(message.CommandArguments())
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID,
			fmt.Sprintf("%v\nUsage: /scope juz 29 30 or /scope surah 36 67", err)))
	}
	return b.updateUser(ctx, message, func(u *models.User) string {
		u.ScopeKind = scope.Kind
		u.ScopeIDs = scope.IDs
		return "✅ Scope set to " + formatScope(scope)
	})
}

func (b *Bot) handleSizeCommand(ctx context.Context, message *tgbotapi.Message) error {
	n, err := parseBoundedInt(message.CommandArguments(), 1, maxSessionSize)
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID,
			fmt.Sprintf("Please send a number from 1 to %d: /size 10", maxSessionSize)))
	}
	return b.updateUser(ctx, message, func(u *models.User) string {
		u.SessionSize = n
		return fmt.Sprintf("✅ Sessions now have up to %d prompts", n)
	})
}

func (b *Bot) handleContextCommand(ctx context.Context, message *tgbotapi.Message) error {
	before, after, err := parseContextArgs(message.CommandArguments())
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID,
			fmt.Sprintf("Please send two numbers from 0 to %d: /context 1 2", maxContext)))
	}
	return b.updateUser(ctx, message, func(u *models.User) string {
		u.ContextBefore = before
		u.ContextAfter = after
		return fmt.Sprintf("✅ Showing %d ayah(s) before and asking for %d after each prompt", before, after)
	})
}

func (b *Bot) handleTimezoneCommand(ctx context.Context, message *tgbotapi.Message) error {
	name := strings.TrimSpace(message.CommandArguments())
	if name == "" {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Please send an IANA timezone: /tz Asia/Jakarta"))
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("Unknown timezone %q", name)))
	}
	return b.updateUser(ctx, message, func(u *models.User) string {
		u.Timezone = loc.String()
		return fmt.Sprintf("✅ Timezone set to %s. Your day now starts at midnight there.", loc)
	})
}

func (b *Bot) handleNotifyCommand(ctx context.Context, message *tgbotapi.Message) error {
	enabled, hour, err := parseNotifyArgs(message.CommandArguments())
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Please use /notify on [hour] or /notify off"))
	}
	if hour >= 0 && (hour < b.cfg.NotificationStartHour || hour > b.cfg.NotificationEndHour) {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID,
			fmt.Sprintf("Reminders can be sent between %d:00 and %d:00", b.cfg.NotificationStartHour, b.cfg.NotificationEndHour)))
	}
	return b.updateUser(ctx, message, func(u *models.User) string {
		u.NotificationEnabled = enabled
		if hour >= 0 {
			u.NotificationHour = hour
		}
		if !enabled {
			return "✅ Reminders disabled"
		}
		return fmt.Sprintf("✅ Reminders enabled at %02d:00", u.NotificationHour)
	})
}

func (b *Bot) handleResetCommand(message *tgbotapi.Message) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, "⚠️ This deletes all your review progress and history. Continue?")
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "🗑 Delete everything", CallbackData: callbackResetConfirm},
		{Text: "Cancel", CallbackData: callbackCancelAction},
	}})
	return b.sendMessage(msg)
}

func (b *Bot) handleResetConfirm(ctx context.Context, userID, chatID int64) error {
	if err := b.reviewer.Reset(ctx, userID); err != nil {
		return err
	}
	b.endSession(userID)
	return b.sendMessage(tgbotapi.NewMessage(chatID, "✅ Your review progress was deleted."))
}

func (b *Bot) handleAdminStats(ctx context.Context, message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "This command is only available for administrators."))
	}
	users, err := b.users.GetAll(ctx)
	if err != nil {
		return err
	}
	reminders := 0
	for _, u := range users {
		if u.NotificationEnabled {
			reminders++
		}
	}
	b.mu.Lock()
	active := len(b.sessions)
	b.mu.Unlock()

	text := fmt.Sprintf("👥 Users: %d\n🔔 With reminders: %d\n📖 Active sessions: %d", len(users), reminders, active)
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, text))
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /help to see the commands."))
}

// updateUser applies change to the sender's settings, saves them and replies with change's message
func (b *Bot) updateUser(ctx context.Context, message *tgbotapi.Message, change func(u *models.User) string) error {
	user, err := b.loadUser(ctx, message.From)
	if err != nil {
		return err
	}
	reply := change(user)
	if err := b.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, reply))
}

func (b *Bot) showMainMenu(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Main menu - choose an option:")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📖 Start review", CallbackData: callbackReview}},
		{
			{Text: "📊 Statistics", CallbackData: callbackStats},
			{Text: "⚙️ Settings", CallbackData: callbackSettings},
		},
		{{Text: "❓ Help", CallbackData: callbackHelp}},
	}
}
