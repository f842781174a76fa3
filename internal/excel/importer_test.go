package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/hifzbot/pkg/models"
)

type memoryWriter struct {
	ayahs map[models.AyahKey]models.Ayah
}

func (m *memoryWriter) Upsert(_ context.Context, ayah models.Ayah) error {
	if m.ayahs == nil {
		m.ayahs = make(map[models.AyahKey]models.Ayah)
	}
	m.ayahs[ayah.Key] = ayah
	return nil
}

func TestImportAyahs_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quran.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"surah", "ayah", "text", "translation"},
		{1, 1, "بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ", "In the name of Allah"},
		{1, 2, "الْحَمْدُ لِلَّهِ رَبِّ الْعَالَمِينَ", "All praise is due to Allah"},
		{1, 8, "not an ayah", ""},
		{"two", 1, "bad surah", ""},
		{2, 255, "اللَّهُ لَا إِلَٰهَ إِلَّا هُوَ", ""},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	w := &memoryWriter{}

	result, err := ImportAyahs(context.Background(), cfg, w)
	require.NoError(t, err)
	require.Equal(t, 5, result.TotalProcessed)
	require.Equal(t, 3, result.Imported)
	require.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)

	kursi := w.ayahs[models.AyahKey{Surah: 2, Ayah: 255}]
	require.Equal(t, 3, kursi.Juz)
	require.Equal(t, "In the name of Allah", w.ayahs[models.AyahKey{Surah: 1, Ayah: 1}].Translation)
}

func TestImportAyahs_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quran.csv")
	content := "surah,ayah,text\n112,1,qul huwa allahu ahad\n\n112,2,allahu as-samad\n112,5,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	w := &memoryWriter{}

	result, err := ImportAyahs(context.Background(), cfg, w)
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, "allahu as-samad", w.ayahs[models.AyahKey{Surah: 112, Ayah: 2}].Text)
}

func TestImportAyahs_MissingFile(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")
	_, err := ImportAyahs(context.Background(), cfg, &memoryWriter{})
	require.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	require.Equal(t, 0, columnToIndex("A"))
	require.Equal(t, 3, columnToIndex("d"))
	require.Equal(t, 26, columnToIndex("AA"))
}
