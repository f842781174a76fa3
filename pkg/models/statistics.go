package models

// DayCount is the number of gradings on one local day
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats summarises a user's review activity for the dashboard
type Stats struct {
	DueTodayCount      int        `json:"due_today_count"`
	ReviewedTodayCount int        `json:"reviewed_today_count"`
	CurrentStreakDays  int        `json:"current_streak_days"`
	TotalReviewedCount int        `json:"total_reviewed_count"`
	DailyAverage       float64    `json:"daily_average"`
	TrackedCount       int        `json:"tracked_count"`
	MasteredCount      int        `json:"mastered_count"`
	Daily              []DayCount `json:"daily,omitempty"`
}
