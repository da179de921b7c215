package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	LangArabic  = "ar"
	LangEnglish = "en"
)

var arabicMonths = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// NormalizeLanguage mengubah tag seperti "AR-eg" atau "en_US" menjadi kode bahasa dasar ("ar", "en").
// Input yang bukan tag BCP 47 valid dikembalikan dalam huruf kecil.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return strings.ToLower(lang)
	}
	base, _ := tag.Base()
	return base.String()
}

// FormatDate memformat tanggal sesuai bahasa sertifikat
func FormatDate(t time.Time, lang string) string {
	if NormalizeLanguage(lang) == LangArabic {
		s := fmt.Sprintf("%d %s %d", t.Day(), arabicMonths[t.Month()-1], t.Year())
		return ToArabicIndicDigits(s)
	}
	return t.Format("January 2, 2006")
}

// FormatDuration menghasilkan teks durasi kursus, kosong jika durasi tidak diketahui
func FormatDuration(hours float64, lang string) string {
	if hours <= 0 {
		return ""
	}
	n := strconv.FormatFloat(hours, 'f', -1, 64)
	if NormalizeLanguage(lang) == LangArabic {
		return ToArabicIndicDigits(n) + " ساعة"
	}
	if hours == 1 {
		return "1 hour"
	}
	return n + " hours"
}

func ToArabicIndicDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune('٠' + (r - '0'))
		case r == '.':
			b.WriteRune('٫')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
