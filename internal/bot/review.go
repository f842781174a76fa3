package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperr "github.com/example/hifzbot/internal/errors"
	"github.com/example/hifzbot/internal/review"
	"github.com/example/hifzbot/internal/session"
	sr "github.com/example/hifzbot/internal/spaced_repetition"
)

// activeSession is a user's review in progress
type activeSession struct {
	mu         sync.Mutex
	session    *session.Session
	index      int
	loc        *time.Location
	remembered int
	forgot     int
}

func (s *activeSession) current() session.Item {
	return s.session.Items[s.index]
}

func (b *Bot) sessionFor(userID int64) *activeSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[userID]
}

func (b *Bot) endSession(userID int64) {
	b.mu.Lock()
	delete(b.sessions, userID)
	b.mu.Unlock()
}

// startReview assembles a session from the user's settings and sends the first prompt
func (b *Bot) startReview(ctx context.Context, from *tgbotapi.User, chatID int64) error {
	user, err := b.loadUser(ctx, from)
	if err != nil {
		return err
	}

	size := user.SessionSize
	if size <= 0 {
		size = b.cfg.SessionSize
	}
	sess, err := b.reviewer.StartSession(ctx, user.ID, session.Request{
		Scope:         user.Scope(),
		Count:         size,
		ContextBefore: user.ContextBefore,
		ContextAfter:  user.ContextAfter,
		Mode:          session.ModeText,
	})
	switch {
	case apperr.Is(err, apperr.ErrScopeEmpty):
		return b.sendMessage(tgbotapi.NewMessage(chatID,
			"Your scope has no ayahs to review. Choose another one with /scope."))
	case apperr.Is(err, apperr.ErrInvalidRequest):
		return b.sendMessage(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("Your settings need a fix: %v\nSee /settings.", err)))
	case err != nil:
		return err
	}
	if len(sess.Items) == 0 {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Nothing to review right now. 🎉"))
	}

	state := &activeSession{session: sess, loc: user.Location(b.cfg.DefaultTimezone)}
	b.mu.Lock()
	b.sessions[user.ID] = state
	b.mu.Unlock()

	due, unseen := sess.Counts()
	intro := fmt.Sprintf("📖 Review of %s: %d due, %d new", formatScope(sess.Scope), due, unseen)
	if sess.Degraded {
		intro += "\n⚠️ Your schedule could not be loaded, so only new ayahs are shown."
	}
	if err := b.sendMessage(tgbotapi.NewMessage(chatID, intro)); err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return b.sendPrompt(chatID, state)
}

func (b *Bot) sendPrompt(chatID int64, state *activeSession) error {
	item := state.current()
	msg := tgbotapi.NewMessage(chatID, formatPrompt(item, state.session.Mode, state.index, len(state.session.Items)))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "👁 Show next", CallbackData: encodeReviewCallback(reviewAction{Kind: actionReveal, SessionID: state.session.ID, Index: state.index})},
	}})
	return b.sendMessage(msg)
}

// handleReviewCallback reveals the expected continuation or applies a grade
func (b *Bot) handleReviewCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, action reviewAction) error {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state := b.sessionFor(userID)
	if state == nil {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "This card is no longer active. Use /review to start a new session."))
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.session.ID != action.SessionID || state.index != action.Index || state.index >= len(state.session.Items) {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "This card is no longer active. Use /review to start a new session."))
	}

	item := state.current()
	prompt := formatPrompt(item, state.session.Mode, state.index, len(state.session.Items))

	if action.Kind == actionReveal {
		text := prompt + "\n\n" + formatReveal(item, state.session.Mode)
		markup := createKeyboard([][]MenuButton{{
			{Text: "✅ Remembered", CallbackData: encodeReviewCallback(reviewAction{Kind: actionGrade, SessionID: action.SessionID, Index: action.Index, Quality: sr.Success})},
			{Text: "❌ Forgot", CallbackData: encodeReviewCallback(reviewAction{Kind: actionGrade, SessionID: action.SessionID, Index: action.Index, Quality: sr.Failure})},
		}})
		return b.sendMessage(tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID, text, markup))
	}

	graded, err := b.reviewer.Grade(ctx, userID, review.GradeRequest{
		Key:       item.Ayah.Key,
		Quality:   action.Quality,
		ScopeKind: state.session.Scope.Kind,
	}, state.loc)
	if apperr.Is(err, apperr.ErrStoreUnavailable) {
		// The card stays active so the user can press the button again
		return b.sendMessage(tgbotapi.NewMessage(chatID, "⚠️ Your answer could not be saved. Please press the button again."))
	}
	if err != nil {
		return err
	}

	if action.Quality == sr.Success {
		state.remembered++
	} else {
		state.forgot++
	}
	result := prompt + "\n\n" + formatReveal(item, state.session.Mode) + "\n\n" + formatGradeResult(action.Quality, graded.Interval)
	if !graded.LogRecorded {
		result += "\n" + logNotSavedNote
	}
	if err := b.sendMessage(tgbotapi.NewEditMessageText(chatID, callback.Message.MessageID, result)); err != nil {
		b.log.Warn("failed to update graded card", "user_id", userID, "error", err)
	}

	state.index++
	if state.index < len(state.session.Items) {
		return b.sendPrompt(chatID, state)
	}

	b.endSession(userID)
	stats := b.reviewer.Stats(ctx, userID, state.loc)
	msg := tgbotapi.NewMessage(chatID, formatSummary(state.remembered, state.forgot, stats))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "📖 Another session", CallbackData: callbackReview}},
		{{Text: "« Back to menu", CallbackData: callbackMainMenu}},
	})
	return b.sendMessage(msg)
}
