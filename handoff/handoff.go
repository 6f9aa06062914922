// Package handoff passes results to downstream consumers as JSON message
// files, one file per message, named by the message ID.
package handoff

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/tally/aggregate"
	"github.com/pevans/tally/links"
	"github.com/pevans/tally/records"
)

// Kind says which result a message carries.
type Kind string

const (
	KindFolders   Kind = "folders"
	KindMonths    Kind = "months"
	KindCounts    Kind = "counts"
	KindAggregate Kind = "aggregate"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrInvalidKind     = errors.New("kind must be folders, months, counts or aggregate")
)

// Message is one handoff unit. Exactly one payload field is set, matching
// Kind. Folder names the folder a months or counts message belongs to.
type Message struct {
	ID        uuid.UUID            `json:"id"`
	Kind      Kind                 `json:"kind"`
	CreatedAt time.Time            `json:"created_at"`
	Folder    string               `json:"folder,omitempty"`
	Folders   *links.FolderResult  `json:"folders,omitempty"`
	Months    *links.MonthResult   `json:"months,omitempty"`
	Counts    []records.CountTuple `json:"counts,omitempty"`
	Tree      *aggregate.Tree      `json:"tree,omitempty"`
}

func newMessage(kind Kind) Message {
	return Message{
		ID:        uuid.New(),
		Kind:      kind,
		CreatedAt: time.Now().UTC().Truncate(0),
	}
}

// FoldersMessage wraps a folder classification result.
func FoldersMessage(folders []links.FolderTarget) Message {
	m := newMessage(KindFolders)
	m.Folders = &links.FolderResult{Success: true, Folders: nonNil(folders)}
	return m
}

// MonthsMessage wraps the monthly targets found in folder.
func MonthsMessage(folder string, months []links.MonthTarget) Message {
	m := newMessage(KindMonths)
	m.Folder = folder
	m.Months = &links.MonthResult{Success: true, Months: nonNil(months)}
	return m
}

// CountsMessage wraps the count tuples gathered for folder.
func CountsMessage(folder string, tuples []records.CountTuple) Message {
	m := newMessage(KindCounts)
	m.Folder = folder
	m.Counts = nonNil(tuples)
	return m
}

// AggregateMessage wraps an aggregation tree.
func AggregateMessage(tree *aggregate.Tree) Message {
	m := newMessage(KindAggregate)
	m.Tree = tree
	return m
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFolders, KindMonths, KindCounts, KindAggregate:
		return true
	}
	return false
}

// Dir stores messages as JSON files in a directory.
type Dir struct {
	dir string
}

// ReadError describes a failure to read a single message file.
type ReadError struct {
	Filename string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

// ListResult contains the messages read by List and any per-file errors.
type ListResult struct {
	Messages []Message
	Errors   []ReadError
}

// NewDir creates a message directory, creating it if needed.
func NewDir(dir string) (*Dir, error) {
	// 0700: owner-only access
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create handoff directory: %w", err)
	}
	return &Dir{dir: dir}, nil
}

// Path returns the directory messages are written to.
func (d *Dir) Path() string {
	return d.dir
}

// Emit writes msg to its own file. The file is written under a temporary
// name and renamed, so readers never see a partial message.
func (d *Dir) Emit(msg Message) error {
	if !msg.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, msg.Kind)
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	final := d.filename(msg.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// List returns every message, oldest first. Corrupted files are collected
// in the result's Errors slice rather than failing the whole listing.
func (d *Dir) List() (*ListResult, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read handoff directory: %w", err)
	}

	result := &ListResult{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		msg, err := readMessage(filepath.Join(d.dir, entry.Name()))
		if err != nil {
			result.Errors = append(result.Errors, ReadError{Filename: entry.Name(), Err: err})
			continue
		}
		result.Messages = append(result.Messages, *msg)
	}

	slices.SortStableFunc(result.Messages, func(a, b Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

// Get reads the message with the given ID.
func (d *Dir) Get(id uuid.UUID) (*Message, error) {
	msg, err := readMessage(d.filename(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMessageNotFound
	}
	return msg, err
}

// Delete removes the message with the given ID.
func (d *Dir) Delete(id uuid.UUID) error {
	err := os.Remove(d.filename(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (d *Dir) filename(id uuid.UUID) string {
	return filepath.Join(d.dir, id.String()+".json")
}

func readMessage(filename string) (*Message, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, msg.Kind)
	}
	return &msg, nil
}
