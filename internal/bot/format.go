package bot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/hifzbot/internal/corpus"
	"github.com/example/hifzbot/internal/session"
	sr "github.com/example/hifzbot/internal/spaced_repetition"
	"github.com/example/hifzbot/pkg/models"
)

const (
	actionReveal = "r"
	actionGrade  = "g"
)

// reviewAction is the payload of a review card button
type reviewAction struct {
	Kind      string
	SessionID string
	Index     int
	Quality   sr.Quality
}

// encodeReviewCallback packs a into Telegram callback data (at most 64 bytes)
func encodeReviewCallback(a reviewAction) string {
	data := fmt.Sprintf("%s:%s:%d", a.Kind, a.SessionID, a.Index)
	if a.Kind == actionGrade {
		if a.Quality == sr.Success {
			data += ":s"
		} else {
			data += ":f"
		}
	}
	return data
}

func parseReviewCallback(data string) (reviewAction, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return reviewAction{}, fmt.Errorf("malformed callback %q", data)
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil || index < 0 {
		return reviewAction{}, fmt.Errorf("malformed callback index %q", parts[2])
	}
	a := reviewAction{Kind: parts[0], SessionID: parts[1], Index: index}
	if a.SessionID == "" {
		return reviewAction{}, fmt.Errorf("callback %q has no session", data)
	}

	switch a.Kind {
	case actionReveal:
		if len(parts) != 3 {
			return reviewAction{}, fmt.Errorf("malformed callback %q", data)
		}
	case actionGrade:
		if len(parts) != 4 {
			return reviewAction{}, fmt.Errorf("malformed callback %q", data)
		}
		q, err := sr.ParseQuality(parts[3])
		if err != nil {
			return reviewAction{}, err
		}
		a.Quality = q
	default:
		return reviewAction{}, fmt.Errorf("unknown callback action %q", a.Kind)
	}
	return a, nil
}

// parseScopeArgs parses "juz 29 30" or "surah 1 36-38"
func parseScopeArgs(args string) (models.Scope, error) {
	fields := strings.Fields(strings.ReplaceAll(args, ",", " "))
	if len(fields) < 2 {
		return models.Scope{}, errors.New("give a scope kind and at least one number")
	}
	kind, err := models.ParseScopeKind(fields[0])
	if err != nil {
		return models.Scope{}, err
	}
	limit := corpus.SurahCount
	if kind == models.ScopeJuz {
		limit = corpus.JuzCount
	}

	seen := make(map[int]bool)
	for _, field := range fields[1:] {
		from, to, err := parseRange(field)
		if err != nil {
			return models.Scope{}, err
		}
		if from < 1 || to > limit || from > to {
			return models.Scope{}, fmt.Errorf("%s numbers go from 1 to %d", kind, limit)
		}
		for id := from; id <= to; id++ {
			seen[id] = true
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return models.Scope{Kind: kind, IDs: ids}, nil
}

func parseRange(s string) (int, int, error) {
	lo, hi, isRange := strings.Cut(s, "-")
	from, err := strconv.Atoi(lo)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", s)
	}
	if !isRange {
		return from, from, nil
	}
	to, err := strconv.Atoi(hi)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	return from, to, nil
}

func parseBoundedInt(s string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%d is outside %d-%d", n, min, max)
	}
	return n, nil
}

func parseContextArgs(args string) (before, after int, err error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, errors.New("want two numbers")
	}
	if before, err = parseBoundedInt(fields[0], 0, maxContext); err != nil {
		return 0, 0, err
	}
	if after, err = parseBoundedInt(fields[1], 0, maxContext); err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

// parseNotifyArgs parses "on", "on 7" or "off"; hour is -1 when not given
func parseNotifyArgs(args string) (enabled bool, hour int, err error) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) == 0 || len(fields) > 2 {
		return false, -1, errors.New("want on [hour] or off")
	}
	switch fields[0] {
	case "on":
		enabled = true
	case "off":
		if len(fields) > 1 {
			return false, -1, errors.New("off takes no hour")
		}
		return false, -1, nil
	default:
		return false, -1, fmt.Errorf("unknown option %q", fields[0])
	}
	hour = -1
	if len(fields) == 2 {
		if hour, err = parseBoundedInt(fields[1], 0, 23); err != nil {
			return false, -1, err
		}
	}
	return enabled, hour, nil
}

func formatScope(scope models.Scope) string {
	label := "Juz"
	if scope.Kind == models.ScopeSurah {
		label = "Surah"
	}
	if len(scope.IDs) == 0 {
		return label + " (none)"
	}
	ids := make([]string, len(scope.IDs))
	for i, id := range scope.IDs {
		ids[i] = strconv.Itoa(id)
	}
	return label + " " + strings.Join(ids, ", ")
}

// formatAyah renders the ayah text in text mode and only its reference in page mode
func formatAyah(a models.Ayah, mode session.Mode) string {
	if mode == session.ModePage || a.Text == "" {
		return fmt.Sprintf("[%s]", a.Key)
	}
	return fmt.Sprintf("%s (%s)", a.Text, a.Key)
}

func formatPrompt(item session.Item, mode session.Mode, index, total int) string {
	var sb strings.Builder
	status := "new"
	if item.Status == session.StatusDue {
		status = "due"
	}
	fmt.Fprintf(&sb, "Card %d/%d · %s · Juz %d\n\n", index+1, total, status, item.Ayah.Juz)
	for _, a := range item.Before {
		sb.WriteString(formatAyah(a, mode))
		sb.WriteString("\n")
	}
	sb.WriteString("➡️ ")
	sb.WriteString(formatAyah(item.Ayah, mode))
	if len(item.After) > 0 {
		fmt.Fprintf(&sb, "\n\nRecite the next %d ayah(s), then tap Show next.", len(item.After))
	} else {
		sb.WriteString("\n\nRecite what follows, then tap Show next.")
	}
	return sb.String()
}

func formatReveal(item session.Item, mode session.Mode) string {
	var sb strings.Builder
	for i, a := range item.After {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(formatAyah(a, mode))
	}
	if item.ContextUnavailable {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("(Some surrounding ayahs could not be loaded.)")
	}
	if sb.Len() == 0 {
		return "(End of the surah.)"
	}
	return sb.String()
}

const logNotSavedNote = "⚠️ Your answer is saved, but today's count was not updated. Today's total and streak may miss this review."

func formatGradeResult(q sr.Quality, interval int) string {
	if q == sr.Success {
		return fmt.Sprintf("✅ Remembered · next review in %s", pluralDays(interval))
	}
	return "❌ Forgot · back tomorrow"
}

func formatStats(s models.Stats) string {
	return "📊 Your progress\n\n" +
		fmt.Sprintf("Due today: %d\n", s.DueTodayCount) +
		fmt.Sprintf("Reviewed today: %d\n", s.ReviewedTodayCount) +
		fmt.Sprintf("Streak: %s\n", pluralDays(s.CurrentStreakDays)) +
		fmt.Sprintf("Total reviews: %d\n", s.TotalReviewedCount) +
		fmt.Sprintf("Daily average: %.1f\n", s.DailyAverage) +
		fmt.Sprintf("Ayahs tracked: %d\n", s.TrackedCount) +
		fmt.Sprintf("Mastered: %d", s.MasteredCount)
}

func formatSummary(remembered, forgot int, s models.Stats) string {
	return fmt.Sprintf("🎉 Session complete: %d remembered, %d forgot.\n", remembered, forgot) +
		fmt.Sprintf("Reviewed today: %d · Streak: %s", s.ReviewedTodayCount, pluralDays(s.CurrentStreakDays))
}

func formatSettings(u models.User, fallback *time.Location) string {
	reminders := "off"
	if u.NotificationEnabled {
		reminders = fmt.Sprintf("daily at %02d:00", u.NotificationHour)
	}
	return "⚙️ Settings\n\n" +
		fmt.Sprintf("Scope: %s\n", formatScope(u.Scope())) +
		fmt.Sprintf("Prompts per session: %d\n", u.SessionSize) +
		fmt.Sprintf("Context: %d before, %d after\n", u.ContextBefore, u.ContextAfter) +
		fmt.Sprintf("Timezone: %s\n", u.Location(fallback)) +
		fmt.Sprintf("Reminders: %s", reminders)
}

func reminderText(count int) string {
	if count == 1 {
		return "🔔 1 ayah is due for review today."
	}
	return fmt.Sprintf("🔔 %d ayahs are due for review today.", count)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
