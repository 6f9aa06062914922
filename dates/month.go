package dates

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pevans/tally/normalize"
)

var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,

	"janeiro": 1, "fevereiro": 2, "marco": 3, "abril": 4, "maio": 5, "junho": 6,
	"julho": 7, "agosto": 8, "setembro": 9, "outubro": 10, "novembro": 11, "dezembro": 12,
	"fev": 2, "abr": 4, "mai": 5, "ago": 8, "set": 9, "out": 10, "dez": 12,
}

// monthForm is one shape of month phrase. match returns ok=false when the
// text does not contain the shape.
type monthForm struct {
	name  string
	match func(text string) (year, month int, ok bool)
}

var (
	dayMonthYearRe = regexp.MustCompile(`(?:^|[^0-9])(?:(\d{1,2}) )?(?:de )?([a-z]+) (?:de )?(\d{4})(?:[^0-9]|$)`)
	yearMonthRe    = regexp.MustCompile(`(?:^|[^0-9])(\d{4}) ([a-z]+)(?:[^a-z]|$)`)
	yearNumMonthRe = regexp.MustCompile(`(?:^|[^0-9])(\d{4})[/ ](\d{1,2})(?:[^0-9/]|$)`)
	numericDateRe  = regexp.MustCompile(`(?:^|[^0-9])(\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))(?:[^0-9]|$)`)
	numMonthYearRe = regexp.MustCompile(`(?:^|[^0-9/])(\d{1,2})[/ ](\d{4})(?:[^0-9]|$)`)
)

// monthForms is tried in order; the first form that matches wins.
var monthForms = []monthForm{
	{name: "day month year", match: matchDayMonthYear},
	{name: "year month", match: matchYearMonth},
	{name: "day/month/year", match: matchNumericDate},
	{name: "year/month", match: matchYearNumMonth},
	{name: "month/year", match: matchNumMonthYear},
}

// ParseMonthPhrase finds a year and month in link text or a URL path
// segment. It understands "[day] Month Year", "Year Month", "DD/MM/YY(YY)",
// "YYYY-MM" and "MM/YYYY", with English or Portuguese month names in any
// case and with or without accents.
func ParseMonthPhrase(text string) (year, month int, ok bool) {
	cleaned := cleanPhrase(text)
	if cleaned == "" {
		return 0, 0, false
	}
	for _, form := range monthForms {
		if y, m, ok := form.match(cleaned); ok {
			return y, m, true
		}
	}
	return 0, 0, false
}

// cleanPhrase folds the text and turns URL-ish separators into spaces so
// "janeiro-2025" and "2025_01" read like link text.
func cleanPhrase(text string) string {
	folded := normalize.Fold(text)
	folded = strings.NewReplacer("-", " ", "_", " ", ".", " ", ",", " ", "+", " ", "%20", " ").Replace(folded)
	return normalize.Whitespace(folded)
}

func matchDayMonthYear(text string) (int, int, bool) {
	for _, m := range dayMonthYearRe.FindAllStringSubmatch(text, -1) {
		month, ok := monthNames[m[2]]
		if !ok {
			continue
		}
		if m[1] != "" {
			if day, _ := strconv.Atoi(m[1]); day < 1 || day > 31 {
				continue
			}
		}
		year, _ := strconv.Atoi(m[3])
		if validYear(year) {
			return year, month, true
		}
	}
	return 0, 0, false
}

func matchYearMonth(text string) (int, int, bool) {
	for _, m := range yearMonthRe.FindAllStringSubmatch(text, -1) {
		month, ok := monthNames[m[2]]
		if !ok {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		if validYear(year) {
			return year, month, true
		}
	}
	return 0, 0, false
}

func matchNumericDate(text string) (int, int, bool) {
	for _, m := range numericDateRe.FindAllStringSubmatch(text, -1) {
		if d, ok := Parse(m[1]); ok {
			return d.Year, int(d.Month), true
		}
	}
	return 0, 0, false
}

func matchYearNumMonth(text string) (int, int, bool) {
	for _, m := range yearNumMonthRe.FindAllStringSubmatch(text, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if validYear(year) && month >= 1 && month <= 12 {
			return year, month, true
		}
	}
	return 0, 0, false
}

func matchNumMonthYear(text string) (int, int, bool) {
	for _, m := range numMonthYearRe.FindAllStringSubmatch(text, -1) {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if validYear(year) && month >= 1 && month <= 12 {
			return year, month, true
		}
	}
	return 0, 0, false
}

func validYear(y int) bool {
	return y >= 1900 && y <= 2999
}
