package models

// DateLayout is the layout of DailyLogEntry.Date, always a local calendar day
const DateLayout = "2006-01-02"

// DailyLogEntry counts how many times a user graded one ayah on one day
type DailyLogEntry struct {
	UserID int64  `json:"user_id" db:"user_id"`
	Date   string `json:"date" db:"log_date"`
	Surah  int    `json:"surah" db:"surah"`
	Ayah   int    `json:"ayah" db:"ayah"`
	Count  int    `json:"count" db:"review_count"`
}

// Key returns the ayah this entry counts
func (e DailyLogEntry) Key() AyahKey {
	return AyahKey{Surah: e.Surah, Ayah: e.Ayah}
}
