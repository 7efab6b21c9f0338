package advise

import (
	"strings"
	"unicode"
)

var timeWords = map[string]bool{
	"jam":   true,
	"time":  true,
	"waktu": true,
}

// timeLengths are the lengths of "9:30", "09:30", "9:30:00" and "09:30:00".
var timeLengths = map[int64]bool{4: true, 5: true, 7: true, 8: true}

// LikelyTime reports whether a column name contains jam, time or waktu as a
// whole word. Words are separated by any non-alphanumeric character or by a
// lower-to-upper case change, so jam_masuk, JamMasuk and "Jam Masuk" all
// qualify while overtime and timestamp do not.
func LikelyTime(name string) bool {
	for _, w := range splitWords(name) {
		if timeWords[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

func splitWords(name string) []string {
	var (
		words []string
		cur   []rune
		prev  rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range name {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}
