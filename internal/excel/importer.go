package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/hifzbot/internal/corpus"
	"github.com/example/hifzbot/pkg/models"
)

// AyahWriter stores imported ayah text
type AyahWriter interface {
	Upsert(ctx context.Context, ayah models.Ayah) error
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	SurahColumn       string // Column with the surah number
	AyahColumn        string // Column with the ayah number
	TextColumn        string // Column with the Arabic text
	TranslationColumn string // Column with the translation, optional
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SurahColumn:       "A",
		AyahColumn:        "B",
		TextColumn:        "C",
		TranslationColumn: "D",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

var errEmptyRow = errors.New("empty row")

// ImportAyahs imports ayah text from an Excel or CSV file into w
func ImportAyahs(ctx context.Context, config ImportConfig, w AyahWriter) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ayah, err := parseRow(row, config)
		if errors.Is(err, errEmptyRow) {
			continue
		}
		result.TotalProcessed++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		if err := w.Upsert(ctx, ayah); err != nil {
			return result, fmt.Errorf("row %d: %w", rowNum, err)
		}
		result.Imported++
	}
	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRow extracts one ayah, rejecting keys outside the mushaf
func parseRow(row []string, config ImportConfig) (models.Ayah, error) {
	surahRaw := cell(row, config.SurahColumn)
	ayahRaw := cell(row, config.AyahColumn)
	text := cell(row, config.TextColumn)
	if surahRaw == "" && ayahRaw == "" && text == "" {
		return models.Ayah{}, errEmptyRow
	}

	surah, err := strconv.Atoi(surahRaw)
	if err != nil {
		return models.Ayah{}, fmt.Errorf("invalid surah %q", surahRaw)
	}
	number, err := strconv.Atoi(ayahRaw)
	if err != nil {
		return models.Ayah{}, fmt.Errorf("invalid ayah %q", ayahRaw)
	}
	key := models.AyahKey{Surah: surah, Ayah: number}
	if !corpus.ValidKey(key) {
		return models.Ayah{}, fmt.Errorf("ayah %s does not exist", key)
	}
	if text == "" {
		return models.Ayah{}, fmt.Errorf("text cannot be empty")
	}

	return models.Ayah{
		Key:         key,
		Juz:         corpus.JuzOf(key),
		Text:        text,
		Translation: cell(row, config.TranslationColumn),
	}, nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
