package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/hifzbot/pkg/models"
)

type ayahRow struct {
	Surah       int    `db:"surah"`
	Ayah        int    `db:"ayah"`
	Text        string `db:"text"`
	Translation string `db:"translation"`
}

// AyahRepository stores imported ayah text
type AyahRepository struct {
	db *sqlx.DB
}

// NewAyahRepository creates a new repository instance
func NewAyahRepository(db *sqlx.DB) *AyahRepository {
	return &AyahRepository{db: db}
}

// Upsert inserts the ayah text or replaces an existing one
func (r *AyahRepository) Upsert(ctx context.Context, ayah models.Ayah) error {
	query := r.db.Rebind(`
		INSERT INTO ayahs (surah, ayah, text, translation)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (surah, ayah) DO UPDATE SET
			text = excluded.text,
			translation = excluded.translation
	`)
	if _, err := r.db.ExecContext(ctx, query, ayah.Key.Surah, ayah.Key.Ayah, ayah.Text, ayah.Translation); err != nil {
		return fmt.Errorf("failed to upsert ayah %s: %w", ayah.Key, err)
	}
	return nil
}

// ListAll returns every stored ayah in mushaf order
func (r *AyahRepository) ListAll(ctx context.Context) ([]models.Ayah, error) {
	var rows []ayahRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT surah, ayah, text, translation FROM ayahs ORDER BY surah, ayah"); err != nil {
		return nil, fmt.Errorf("failed to list ayahs: %w", err)
	}

	ayahs := make([]models.Ayah, 0, len(rows))
	for _, row := range rows {
		ayahs = append(ayahs, models.Ayah{
			Key:         models.AyahKey{Surah: row.Surah, Ayah: row.Ayah},
			Text:        row.Text,
			Translation: row.Translation,
		})
	}
	return ayahs, nil
}

// Count returns the number of stored ayahs
func (r *AyahRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM ayahs"); err != nil {
		return 0, fmt.Errorf("failed to count ayahs: %w", err)
	}
	return n, nil
}
