package corpus

import "github.com/example/hifzbot/pkg/models"

// SurahCount and JuzCount are fixed by the mushaf
const (
	SurahCount = 114
	JuzCount   = 30
	AyahCount  = 6236
)

// surahLengths[i] is the number of ayahs in surah i+1
var surahLengths = [SurahCount]int{
	7, 286, 200, 176, 120, 165, 206, 75, 129, 109,
	123, 111, 43, 52, 99, 128, 111, 110, 98, 135,
	112, 78, 118, 64, 77, 227, 93, 88, 69, 60,
	34, 30, 73, 54, 45, 83, 182, 88, 75, 85,
	54, 53, 89, 59, 37, 35, 38, 29, 18, 45,
	60, 49, 62, 55, 78, 96, 29, 22, 24, 13,
	14, 11, 11, 18, 12, 12, 30, 52, 52, 44,
	28, 28, 20, 56, 40, 31, 50, 40, 46, 42,
	29, 19, 36, 25, 22, 17, 19, 26, 30, 20,
	15, 21, 11, 8, 8, 19, 5, 8, 8, 11,
	11, 8, 3, 9, 5, 4, 7, 3, 6, 3,
	5, 4, 5, 6,
}

// juzStarts[i] is the first ayah of juz i+1
var juzStarts = [JuzCount]models.AyahKey{
	{Surah: 1, Ayah: 1}, {Surah: 2, Ayah: 142}, {Surah: 2, Ayah: 253},
	{Surah: 3, Ayah: 93}, {Surah: 4, Ayah: 24}, {Surah: 4, Ayah: 148},
	{Surah: 5, Ayah: 82}, {Surah: 6, Ayah: 111}, {Surah: 7, Ayah: 88},
	{Surah: 8, Ayah: 41}, {Surah: 9, Ayah: 93}, {Surah: 11, Ayah: 6},
	{Surah: 12, Ayah: 53}, {Surah: 15, Ayah: 1}, {Surah: 17, Ayah: 1},
	{Surah: 18, Ayah: 75}, {Surah: 21, Ayah: 1}, {Surah: 23, Ayah: 1},
	{Surah: 25, Ayah: 21}, {Surah: 27, Ayah: 56}, {Surah: 29, Ayah: 46},
	{Surah: 33, Ayah: 31}, {Surah: 36, Ayah: 28}, {Surah: 39, Ayah: 32},
	{Surah: 41, Ayah: 47}, {Surah: 46, Ayah: 1}, {Surah: 51, Ayah: 31},
	{Surah: 58, Ayah: 1}, {Surah: 67, Ayah: 1}, {Surah: 78, Ayah: 1},
}

// ValidKey reports whether key names an existing ayah
func ValidKey(key models.AyahKey) bool {
	if key.Surah < 1 || key.Surah > SurahCount {
		return false
	}
	return key.Ayah >= 1 && key.Ayah <= surahLengths[key.Surah-1]
}

// JuzOf returns the juz containing key, or 0 for an invalid key
func JuzOf(key models.AyahKey) int {
	if !ValidKey(key) {
		return 0
	}
	juz := 1
	for i, start := range juzStarts {
		if key.Less(start) {
			break
		}
		juz = i + 1
	}
	return juz
}

// next returns the ayah following key in mushaf order and false at the end of the mushaf
func next(key models.AyahKey) (models.AyahKey, bool) {
	if key.Ayah < surahLengths[key.Surah-1] {
		return models.AyahKey{Surah: key.Surah, Ayah: key.Ayah + 1}, true
	}
	if key.Surah < SurahCount {
		return models.AyahKey{Surah: key.Surah + 1, Ayah: 1}, true
	}
	return models.AyahKey{}, false
}
