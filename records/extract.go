// Package records parses dated work-item entries into per-person counts and
// moves activity recorded on non-working days to the next business day.
package records

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pevans/tally/dates"
)

// DefaultItemPattern describes an item entry:
//
//	label  date [(-|to|a|ate) date]  [(note)]  -  names  -  count
//
// e.g. "Online Requests 05/01/25 - John Smith, Jane Doe - 3". The names and
// count groups are separated from the rest by " - ".
const DefaultItemPattern = `^\s*(?P<label>.*?)\s*` +
	`(?P<date>\d{1,2}\s*/\s*\d{1,2}\s*/\s*\d{2,4})` +
	`(?:\s*(?:-|–|to|a|até|ate)\s*\d{1,2}\s*/\s*\d{1,2}\s*/\s*\d{2,4})?` +
	`\s*(?:\((?P<note>[^)]*)\))?` +
	`\s*[-–]\s*(?P<names>.*?)` +
	`\s*[-–]\s*(?P<count>\S+)\s*$`

// DefaultExcludePattern matches message-file entries, which are not work
// items.
const DefaultExcludePattern = `(?i)\b(message|msg)\s*files?\b`

// CountRecord is one observation: on Date, the person with Initials handled
// Count items.
type CountRecord struct {
	Date     dates.Date `json:"date"`
	Initials string     `json:"initials"`
	Count    int        `json:"count"`
}

// Extractor turns item entry text into CountRecords.
type Extractor struct {
	Pattern *regexp.Regexp
	Exclude *regexp.Regexp
	Logger  *slog.Logger
}

// NewExtractor returns an Extractor using the default item grammar.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		Pattern: regexp.MustCompile(DefaultItemPattern),
		Exclude: regexp.MustCompile(DefaultExcludePattern),
		Logger:  logger,
	}
}

// NewExtractorWithPatterns compiles custom item and exclusion patterns. The
// item pattern must have "date", "names" and "count" named groups. An empty
// pattern means the default.
func NewExtractorWithPatterns(item, exclude string, logger *slog.Logger) (*Extractor, error) {
	if item == "" {
		item = DefaultItemPattern
	}
	if exclude == "" {
		exclude = DefaultExcludePattern
	}

	pattern, err := regexp.Compile(item)
	if err != nil {
		return nil, err
	}
	for _, group := range []string{"date", "names", "count"} {
		if pattern.SubexpIndex(group) < 0 {
			return nil, &MissingGroupError{Group: group}
		}
	}

	excl, err := regexp.Compile(exclude)
	if err != nil {
		return nil, err
	}

	return &Extractor{Pattern: pattern, Exclude: excl, Logger: logger}, nil
}

// MissingGroupError reports an item pattern lacking a required named group.
type MissingGroupError struct {
	Group string
}

func (e *MissingGroupError) Error() string {
	return "item pattern has no (?P<" + e.Group + ">...) group"
}

// Extract parses each item and returns one record per (date, person). The
// matched count is credited in full to every named person. Items that do
// not match, are excluded, or carry a bad date, count or name list are
// logged and skipped.
func (e *Extractor) Extract(items []string) []CountRecord {
	var out []CountRecord
	for i, item := range items {
		text := strings.TrimSpace(item)
		if text == "" {
			continue
		}
		if e.Exclude != nil && e.Exclude.MatchString(text) {
			e.skip(i, text, "message file")
			continue
		}

		m := e.Pattern.FindStringSubmatch(text)
		if m == nil {
			e.skip(i, text, "no match")
			continue
		}

		date, ok := dates.Parse(m[e.Pattern.SubexpIndex("date")])
		if !ok {
			e.skip(i, text, "unparseable date")
			continue
		}

		count, err := strconv.Atoi(m[e.Pattern.SubexpIndex("count")])
		if err != nil || count <= 0 {
			e.skip(i, text, "invalid count")
			continue
		}

		initials := SplitNames(m[e.Pattern.SubexpIndex("names")])
		if len(initials) == 0 {
			e.skip(i, text, "empty name list")
			continue
		}

		for _, in := range initials {
			out = append(out, CountRecord{Date: date, Initials: in, Count: count})
		}
	}
	return out
}

// SplitNames splits a name list on "," and "-" into upper-cased initials.
// A token of several words ("John Smith") becomes the first letters of its
// words ("JS"); a single word is kept whole. Repeats are dropped.
func SplitNames(list string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == '-' || r == '–'
	}) {
		in := initialsOf(tok)
		if in == "" {
			continue
		}
		if _, dup := seen[in]; dup {
			continue
		}
		seen[in] = struct{}{}
		out = append(out, in)
	}
	return out
}

func initialsOf(token string) string {
	words := strings.FieldsFunc(strings.ToUpper(token), func(r rune) bool {
		return unicode.IsSpace(r) || r == '.'
	})
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}

	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(r)
	}
	return b.String()
}

func (e *Extractor) skip(index int, text, reason string) {
	e.logger().Log(context.Background(), slog.LevelWarn, "skipped item",
		"index", index, "text", text, "reason", reason)
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
