// Package durfmt превращает число минут аптайма в человекочитаемую русскую
// фразу: "5 минут", "1 час 1 минуту", "2 дня 3 часа".
//
// Форма слова выбирается по правилам CLDR для русского языка
// (one / few / many), поэтому 21 -> "минуту", 22 -> "минуты", 11..14 -> "минут".
package durfmt

import (
	"strconv"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

var (
	minuteForms = forms{one: "минуту", few: "минуты", many: "минут"}
	hourForms   = forms{one: "час", few: "часа", many: "часов"}
	dayForms    = forms{one: "день", few: "дня", many: "дней"}
)

type forms struct {
	one, few, many string
}

// Format возвращает фразу для totalMinutes. Отрицательные значения считаются нулём.
//
//	< 60 минут      -> "<m> минут"
//	< 24 часов      -> "<h> часов [<m> минут]"
//	всё остальное   -> "<d> дней [<h> часов]"
func Format(totalMinutes int) string {
	if totalMinutes < 0 {
		totalMinutes = 0
	}

	if totalMinutes < minutesPerHour {
		return unit(totalMinutes, minuteForms)
	}

	if totalMinutes < minutesPerDay {
		hours := totalMinutes / minutesPerHour
		minutes := totalMinutes % minutesPerHour
		if minutes == 0 {
			return unit(hours, hourForms)
		}
		return unit(hours, hourForms) + " " + unit(minutes, minuteForms)
	}

	days := totalMinutes / minutesPerDay
	hours := totalMinutes % minutesPerDay / minutesPerHour
	if hours == 0 {
		return unit(days, dayForms)
	}
	return unit(days, dayForms) + " " + unit(hours, hourForms)
}

// Plural выбирает одну из трёх форм слова для n.
func Plural(n int, one, few, many string) string {
	switch plural.Cardinal.MatchPlural(language.Russian, n, 0, 0, 0, 0) {
	case plural.One:
		return one
	case plural.Few:
		return few
	default:
		return many
	}
}

func unit(n int, f forms) string {
	return strconv.Itoa(n) + " " + Plural(n, f.one, f.few, f.many)
}
