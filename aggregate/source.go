package aggregate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidSource is returned when the source lacks the
// persons -> year -> month -> folder -> date -> count structure.
var ErrInvalidSource = errors.New("invalid aggregation source")

// Count is a per-date value. It decodes from a JSON number, a numeric
// string or null; anything unusable, including non-finite numbers, is zero.
type Count float64

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(b []byte) error {
	*c = 0
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		*c = Count(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*c = Count(f)
		}
	case bool:
	default:
		return fmt.Errorf("count must be a number, got %s", trimmed)
	}
	return nil
}

// Value returns the count as a float, with non-finite values as zero.
func (c Count) Value() float64 {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// DateCounts maps "YYYY-MM-DD" to the count on that day.
type DateCounts map[string]Count

// FolderCounts maps folder display name to its per-day counts.
type FolderCounts map[string]DateCounts

// MonthFolders maps month key ("1".."12" or "01".."12") to folders.
type MonthFolders map[string]FolderCounts

// YearMonths maps year key ("2025") to months.
type YearMonths map[string]MonthFolders

// Source is the display-name-keyed dataset the engine aggregates. Names
// are used as given; no identifier mapping happens here.
type Source struct {
	Persons map[string]YearMonths `json:"persons"`
}

// DecodeSource reads a JSON source. Shape problems are reported as
// ErrInvalidSource.
func DecodeSource(r io.Reader) (*Source, error) {
	var src Source
	if err := json.NewDecoder(r).Decode(&src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if src.Persons == nil {
		return nil, fmt.Errorf("%w: missing persons", ErrInvalidSource)
	}
	return &src, nil
}

// Add records count for person in folder on the given day, creating the
// intermediate maps as needed. Counts for the same cell are summed.
func (s *Source) Add(person, folder string, year, month int, date string, count float64) {
	if s.Persons == nil {
		s.Persons = make(map[string]YearMonths)
	}
	years := s.Persons[person]
	if years == nil {
		years = make(YearMonths)
		s.Persons[person] = years
	}
	yk := strconv.Itoa(year)
	months := years[yk]
	if months == nil {
		months = make(MonthFolders)
		years[yk] = months
	}
	mk := fmt.Sprintf("%02d", month)
	folders := months[mk]
	if folders == nil {
		folders = make(FolderCounts)
		months[mk] = folders
	}
	days := folders[folder]
	if days == nil {
		days = make(DateCounts)
		folders[folder] = days
	}
	days[date] += Count(count)
}
