// Package links turns the hyperlinks found on a rendered page into typed,
// deduplicated navigation targets: folder targets on a folder listing and
// monthly targets inside a folder.
package links

import "fmt"

// NavLink is a raw hyperlink candidate as rendered on the page.
type NavLink struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// FolderTarget is a classified link to one case/category folder.
type FolderTarget struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MonthTarget is a classified link to one month of dated items inside a
// folder.
type MonthTarget struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	URL   string `json:"url"`
}

// Key returns the month as "YYYY-MM".
func (m MonthTarget) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// FolderResult is the handoff shape for a folder classification run.
type FolderResult struct {
	Success bool           `json:"success"`
	Folders []FolderTarget `json:"folders"`
}

// MonthResult is the handoff shape for a monthly classification run.
type MonthResult struct {
	Success bool          `json:"success"`
	Months  []MonthTarget `json:"months"`
}

// SkipReason says why a candidate was not turned into a target.
type SkipReason string

const (
	SkipEmptyText         SkipReason = "empty_text"
	SkipEmptyHref         SkipReason = "empty_href"
	SkipWorkingCopy       SkipReason = "working_copy"
	SkipInvalidURL        SkipReason = "invalid_url"
	SkipUnsupportedScheme SkipReason = "unsupported_scheme"
	SkipDuplicateURL      SkipReason = "duplicate_url"
	SkipDuplicateText     SkipReason = "duplicate_text"
	SkipPathMismatch      SkipReason = "path_mismatch"
	SkipNameLength        SkipReason = "name_length"
	SkipNoMonth           SkipReason = "no_month"
	SkipDuplicateMonth    SkipReason = "duplicate_month"
)
